package signer

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// solanaKey produces ed25519 signatures over a serialized Solana message.
type solanaKey interface {
	PublicKey() solana.PublicKey
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)
}

// ethereumKey produces 65 byte [R || S || V] signatures over a digest.
type ethereumKey interface {
	Address() common.Address
	SignHash(ctx context.Context, hash []byte) ([]byte, error)
}

type localSolanaKey struct {
	key solana.PrivateKey
}

func (k localSolanaKey) PublicKey() solana.PublicKey {
	return k.key.PublicKey()
}

func (k localSolanaKey) SignMessage(_ context.Context, message []byte) (solana.Signature, error) {
	return k.key.Sign(message)
}

type localEthereumKey struct {
	key *ecdsa.PrivateKey
}

func (k localEthereumKey) Address() common.Address {
	return crypto.PubkeyToAddress(k.key.PublicKey)
}

func (k localEthereumKey) SignHash(_ context.Context, hash []byte) ([]byte, error) {
	return crypto.Sign(hash, k.key)
}
