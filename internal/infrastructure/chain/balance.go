package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/domain/repository"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

const packageName = "chain"

type solanaBalance struct {
	rpcClient *rpc.Client
}

type ethereumBalance struct {
	ethClient *ethclient.Client
}

// NewBalance returns a balance reader for chain talking to rpcNode. The
// returned closer releases the underlying connection.
func NewBalance(ctx context.Context, chain model.Chain, rpcNode string) (repository.BalanceRepository, func(), error) {
	funcName := util.FuncName()

	switch chain {
	case model.ChainSolana:
		c := rpc.New(rpcNode)
		return &solanaBalance{rpcClient: c}, func() { _ = c.Close() }, nil
	case model.ChainEthereum:
		c, err := ethclient.DialContext(ctx, rpcNode)
		if err != nil {
			return nil, nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to dial eth client: %w", err))
		}
		return &ethereumBalance{ethClient: c}, c.Close, nil
	default:
		return nil, nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("%s: %w", chain, model.ErrUnsupportedChain))
	}
}

// GetBalance returns the finalized balance in lamports.
func (s *solanaBalance) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	funcName := util.FuncName()

	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("invalid solana address: %w", err))
	}

	res, err := s.rpcClient.GetBalance(ctx, pub, rpc.CommitmentFinalized)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get balance: %w", err))
	}

	return new(big.Int).SetUint64(res.Value), nil
}

// GetBalance returns the latest balance in wei.
func (e *ethereumBalance) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	funcName := util.FuncName()

	if !common.IsHexAddress(address) {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("invalid ethereum address: %s", address))
	}

	balance, err := e.ethClient.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get balance: %w", err))
	}

	return balance, nil
}
