package repository

import (
	"context"
	"math/big"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
)

// StakingAPIRepository
type StakingAPIRepository interface {
	// Stake requests an unsigned stake transaction
	Stake(ctx context.Context, req model.StakeRequest) (model.UnsignedTransaction, error)
	// Unstake requests an unsigned unstake transaction
	Unstake(ctx context.Context, req model.UnstakeRequest) (model.UnsignedTransaction, error)
	// Withdraw requests an unsigned withdraw transaction
	Withdraw(ctx context.Context, req model.WithdrawRequest) (model.UnsignedTransaction, error)
	// Broadcast submits a signed transaction
	Broadcast(ctx context.Context, req model.BroadcastRequest) (model.BroadcastResult, error)
}

// SignerRepository signs unsigned transactions of a single chain.
type SignerRepository interface {
	Sign(ctx context.Context, tx model.UnsignedTransaction) (*model.SignedTransaction, error)
}

// SignerFactory hands out the signer for a chain.
type SignerFactory interface {
	New(ctx context.Context, chain model.Chain) (SignerRepository, error)
}

// SecretRepository supplies the bearer token and key material.
type SecretRepository interface {
	APIToken(ctx context.Context) (string, error)
	PrivateKeys(ctx context.Context, chain model.Chain) ([]string, error)
}

// BalanceRepository
type BalanceRepository interface {
	GetBalance(ctx context.Context, address string) (*big.Int, error)
}
