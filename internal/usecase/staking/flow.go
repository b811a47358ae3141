// Package staking drives the unified staking API: it requests an unsigned
// transaction, signs it and hands the result to the broadcast endpoint.
//
// Every call is a single forward pipeline. A failed staking request never
// reaches the signer, and nothing is retried or rolled back.
package staking

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/domain/repository"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

const packageName = "staking"

type Flow struct {
	api     repository.StakingAPIRepository
	signers repository.SignerFactory
}

func NewFlow(api repository.StakingAPIRepository, signers repository.SignerFactory) *Flow {
	return &Flow{
		api:     api,
		signers: signers,
	}
}

func (f *Flow) Stake(ctx context.Context, chain model.Chain, network, address, amount string) (model.BroadcastResult, error) {
	funcName := util.FuncName()

	if err := validate(chain, network, address, amount); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	unsigned, err := f.api.Stake(ctx, model.StakeRequest{
		Chain:         chain,
		Network:       network,
		StakerAddress: address,
		Amount:        amount,
	})
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("staking failed: %w", err))
	}

	return f.signAndBroadcast(ctx, unsigned, chain, network, address)
}

func (f *Flow) Unstake(ctx context.Context, chain model.Chain, network, address, amount, stakeAccount string) (model.BroadcastResult, error) {
	funcName := util.FuncName()

	if err := validate(chain, network, address, amount); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}
	if stakeAccount == "" {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("%w: stake account is empty", model.ErrInvalidRequest))
	}

	unsigned, err := f.api.Unstake(ctx, model.UnstakeRequest{
		Chain:         chain,
		Network:       network,
		StakerAddress: address,
		Extra: model.UnstakeExtra{
			Amount:       amount,
			StakeAccount: stakeAccount,
		},
	})
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("unstaking failed: %w", err))
	}

	return f.signAndBroadcast(ctx, unsigned, chain, network, address)
}

func (f *Flow) Withdraw(ctx context.Context, chain model.Chain, network, address, amount string) (model.BroadcastResult, error) {
	funcName := util.FuncName()

	if err := validate(chain, network, address, amount); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	unsigned, err := f.api.Withdraw(ctx, model.WithdrawRequest{
		Chain:         chain,
		Network:       network,
		StakerAddress: address,
		Extra: model.WithdrawExtra{
			Amount: amount,
		},
	})
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("withdraw failed: %w", err))
	}

	return f.signAndBroadcast(ctx, unsigned, chain, network, address)
}

func (f *Flow) signAndBroadcast(ctx context.Context, unsigned model.UnsignedTransaction, chain model.Chain, network, address string) (model.BroadcastResult, error) {
	funcName := util.FuncName()

	signer, err := f.signers.New(ctx, chain)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("broadcast failed: %w", &model.SigningError{Chain: chain, Err: err}))
	}

	signed, err := signer.Sign(ctx, unsigned)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("broadcast failed: %w", &model.SigningError{Chain: chain, Err: err}))
	}
	log.Info().Str("chain", chain.String()).Str("signature", signed.Signature).Msg(util.WrapLogMessage(packageName, funcName, "signed transaction"))

	res, err := f.api.Broadcast(ctx, model.BroadcastRequest{
		Chain:             chain,
		Network:           network,
		StakerAddress:     address,
		SignedTransaction: signed.Signature,
		Extra: model.BroadcastExtra{
			UnsignedTransaction: signed.Transaction,
		},
	})
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("broadcast failed: %w", err))
	}
	log.Info().RawJSON("response", res).Msg(util.WrapLogMessage(packageName, funcName, "broadcast response"))

	return res, nil
}

func validate(chain model.Chain, network, address, amount string) error {
	switch {
	case chain == "":
		return fmt.Errorf("%w: chain is empty", model.ErrInvalidRequest)
	case network == "":
		return fmt.Errorf("%w: network is empty", model.ErrInvalidRequest)
	case address == "":
		return fmt.Errorf("%w: staker address is empty", model.ErrInvalidRequest)
	case amount == "":
		return fmt.Errorf("%w: amount is empty", model.ErrInvalidRequest)
	}
	return nil
}

// Request describes one stake, unstake, withdraw sequence.
type Request struct {
	Chain        model.Chain
	Network      string
	Address      string
	Amount       string
	StakeAccount string
}

type Results struct {
	Stake    model.BroadcastResult
	Unstake  model.BroadcastResult
	Withdraw model.BroadcastResult
}

// RunAll runs stake, unstake and withdraw one after another and stops at the
// first failure. Results holds whatever completed before it.
func (f *Flow) RunAll(ctx context.Context, req Request) (*Results, error) {
	funcName := util.FuncName()

	var results Results
	var err error

	log.Info().Msg(util.WrapLogMessage(packageName, funcName, "staking..."))
	if results.Stake, err = f.Stake(ctx, req.Chain, req.Network, req.Address, req.Amount); err != nil {
		return &results, util.WrapErrorForLog(packageName, funcName, err)
	}

	log.Info().Msg(util.WrapLogMessage(packageName, funcName, "unstaking..."))
	if results.Unstake, err = f.Unstake(ctx, req.Chain, req.Network, req.Address, req.Amount, req.StakeAccount); err != nil {
		return &results, util.WrapErrorForLog(packageName, funcName, err)
	}

	log.Info().Msg(util.WrapLogMessage(packageName, funcName, "withdrawing..."))
	if results.Withdraw, err = f.Withdraw(ctx, req.Chain, req.Network, req.Address, req.Amount); err != nil {
		return &results, util.WrapErrorForLog(packageName, funcName, err)
	}

	return &results, nil
}

// IsSigningError reports whether err came out of the signer rather than the
// staking service.
func IsSigningError(err error) bool {
	var signErr *model.SigningError
	return errors.As(err, &signErr)
}
