package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	"github.com/yukia3e/unified-staking-poc/internal/config"
	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/domain/repository"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

const packageName = "signer"

type factory struct {
	cfg       config.Config
	secrets   repository.SecretRepository
	kmsClient KMSClient
}

// NewFactory returns a signer factory bound to cfg. kmsClient may be nil
// unless cfg selects the kms backend.
func NewFactory(cfg config.Config, secrets repository.SecretRepository, kmsClient KMSClient) repository.SignerFactory {
	return &factory{
		cfg:       cfg,
		secrets:   secrets,
		kmsClient: kmsClient,
	}
}

func (f *factory) New(ctx context.Context, chain model.Chain) (repository.SignerRepository, error) {
	funcName := util.FuncName()

	switch chain {
	case model.ChainSolana:
		keys, err := f.solanaKeys(ctx)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, err)
		}
		return newSolanaSigner(keys...), nil
	case model.ChainEthereum:
		key, err := f.ethereumKey(ctx)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, err)
		}
		return newEthereumSigner(key, f.cfg.NetworkName), nil
	default:
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("%s: %w", chain, model.ErrUnsupportedChain))
	}
}

func (f *factory) solanaKeys(ctx context.Context) ([]solanaKey, error) {
	funcName := util.FuncName()

	if f.cfg.SignerBackend == config.SignerBackendKMS {
		if f.kmsClient == nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("kms client is not configured"))
		}
		key, err := newKMSSolanaKey(ctx, f.kmsClient, f.cfg.KMSKeyVersion)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, err)
		}
		return []solanaKey{key}, nil
	}

	encoded, err := f.secrets.PrivateKeys(ctx, model.ChainSolana)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	keys := make([]solanaKey, 0, len(encoded))
	for i, e := range encoded {
		pk, err := solana.PrivateKeyFromBase58(e)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("invalid solana private key #%d: %w", i, err))
		}
		keys = append(keys, localSolanaKey{key: pk})
	}
	return keys, nil
}

// ethereumKey returns the key of the configured staker. The first key is only
// used when the staker is not given as a hex address.
func (f *factory) ethereumKey(ctx context.Context) (ethereumKey, error) {
	funcName := util.FuncName()

	if f.cfg.SignerBackend == config.SignerBackendKMS {
		if f.kmsClient == nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("kms client is not configured"))
		}
		key, err := newKMSEthereumKey(ctx, f.kmsClient, f.cfg.KMSKeyVersion)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, err)
		}
		if common.IsHexAddress(f.cfg.Address) && key.Address() != common.HexToAddress(f.cfg.Address) {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("kms key %s does not match staker %s", key.Address().Hex(), common.HexToAddress(f.cfg.Address).Hex()))
		}
		return key, nil
	}

	encoded, err := f.secrets.PrivateKeys(ctx, model.ChainEthereum)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	var keys []*ecdsa.PrivateKey
	for i, e := range encoded {
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(e, "0x"))
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("invalid ethereum private key #%d: %w", i, err))
		}
		keys = append(keys, pk)
	}

	if len(keys) == 0 {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("no ethereum private keys"))
	}

	if common.IsHexAddress(f.cfg.Address) {
		staker := common.HexToAddress(f.cfg.Address)
		for _, pk := range keys {
			if crypto.PubkeyToAddress(pk.PublicKey) == staker {
				return localEthereumKey{key: pk}, nil
			}
		}
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("no key for staker %s", staker.Hex()))
	}
	return localEthereumKey{key: keys[0]}, nil
}
