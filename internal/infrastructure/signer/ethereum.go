package signer

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

// ethereumChainIDs is used for legacy transactions, which carry no chain id
// until they are signed.
var ethereumChainIDs = map[string]*big.Int{
	"mainnet": big.NewInt(1),
	"sepolia": big.NewInt(11155111),
	"holesky": big.NewInt(17000),
	"hoodi":   big.NewInt(560048),
}

func ethereumChainID(network string) (*big.Int, error) {
	id, ok := ethereumChainIDs[strings.ToLower(network)]
	if !ok {
		return nil, fmt.Errorf("unknown ethereum network %q", network)
	}
	return new(big.Int).Set(id), nil
}

type ethereumSigner struct {
	key     ethereumKey
	network string
}

func newEthereumSigner(key ethereumKey, network string) *ethereumSigner {
	return &ethereumSigner{key: key, network: network}
}

// Sign returns the signed raw transaction as 0x-hex in Signature.
func (s *ethereumSigner) Sign(ctx context.Context, unsigned model.UnsignedTransaction) (*model.SignedTransaction, error) {
	funcName := util.FuncName()

	raw, err := decodePayload(string(unsigned))
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to decode ethereum transaction: %w", err))
	}

	var chainID *big.Int
	if tx.Type() == types.LegacyTxType {
		chainID, err = ethereumChainID(s.network)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, err)
		}
	} else {
		chainID = tx.ChainId()
	}

	signer := types.LatestSignerForChainID(chainID)
	txHash := signer.Hash(tx)

	signature, err := s.key.SignHash(ctx, txHash[:])
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign: %w", err))
	}

	signedTx, err := tx.WithSignature(signer, signature)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign transaction: %w", err))
	}

	sender, err := types.Sender(signer, signedTx)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to recover sender: %w", err))
	}
	if sender != s.key.Address() {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("invalid sender, expected %s, got %s", s.key.Address().Hex(), sender.Hex()))
	}

	out, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to encode signed transaction: %w", err))
	}
	log.Debug().Str("hash", signedTx.Hash().Hex()).Msg(util.WrapLogMessage(packageName, funcName, "signed ethereum transaction"))

	return &model.SignedTransaction{
		Signature:   hexutil.Encode(out),
		Transaction: string(unsigned),
	}, nil
}
