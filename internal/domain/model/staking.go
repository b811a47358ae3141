package model

import "encoding/json"

type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
)

func (c Chain) String() string {
	return string(c)
}

// StakeRequest is the body of POST /staking/stake.
type StakeRequest struct {
	Chain         Chain  `json:"chain"`
	Network       string `json:"network"`
	StakerAddress string `json:"stakerAddress"`
	Amount        string `json:"amount"`
}

// UnstakeRequest is the body of POST /staking/unstake.
type UnstakeRequest struct {
	Chain         Chain        `json:"chain"`
	Network       string       `json:"network"`
	StakerAddress string       `json:"stakerAddress"`
	Extra         UnstakeExtra `json:"extra"`
}

type UnstakeExtra struct {
	Amount       string `json:"amount"`
	StakeAccount string `json:"stakeAccount"`
}

// WithdrawRequest is the body of POST /staking/withdraw.
type WithdrawRequest struct {
	Chain         Chain         `json:"chain"`
	Network       string        `json:"network"`
	StakerAddress string        `json:"stakerAddress"`
	Extra         WithdrawExtra `json:"extra"`
}

type WithdrawExtra struct {
	Amount string `json:"amount"`
}

// BroadcastRequest is the body of POST /transaction/broadcast.
type BroadcastRequest struct {
	Chain             Chain          `json:"chain"`
	Network           string         `json:"network"`
	StakerAddress     string         `json:"stakerAddress"`
	SignedTransaction string         `json:"signedTransaction"`
	Extra             BroadcastExtra `json:"extra"`
}

type BroadcastExtra struct {
	UnsignedTransaction string `json:"unsignedTransaction"`
}

// UnsignedTransaction is the opaque payload returned by the staking service.
type UnsignedTransaction string

// SignedTransaction is what a signer hands back for broadcasting.
type SignedTransaction struct {
	Signature   string `json:"signature"`
	Transaction string `json:"transaction"`
}

// BroadcastResult is the raw broadcast response. It is not interpreted.
type BroadcastResult json.RawMessage

func (r BroadcastResult) String() string {
	return string(r)
}

func (r BroadcastResult) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}
