package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/domain/repository"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

const (
	packageName = "secret"

	apiTokenEnv = "P2P_API_TOKEN"
)

var ErrSecretNotFound = errors.New("secret not found")

var privateKeysEnv = map[model.Chain]string{
	model.ChainSolana:   "SOLANA_PRIVATE_KEYS",
	model.ChainEthereum: "ETHEREUM_PRIVATE_KEYS",
}

type envSecrets struct {
	lookup func(string) (string, bool)
}

// NewEnv returns secrets read from the process environment on every call.
func NewEnv() repository.SecretRepository {
	return &envSecrets{lookup: os.LookupEnv}
}

func (e *envSecrets) APIToken(ctx context.Context) (string, error) {
	token, ok := e.lookup(apiTokenEnv)
	if !ok || token == "" {
		return "", util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("%s: %w", apiTokenEnv, ErrSecretNotFound))
	}
	return token, nil
}

func (e *envSecrets) PrivateKeys(ctx context.Context, chain model.Chain) ([]string, error) {
	key, ok := privateKeysEnv[chain]
	if !ok {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("%s: %w", chain, model.ErrUnsupportedChain))
	}

	raw, _ := e.lookup(key)
	keys := splitKeys(raw)
	if len(keys) == 0 {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("%s: %w", key, ErrSecretNotFound))
	}
	return keys, nil
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
