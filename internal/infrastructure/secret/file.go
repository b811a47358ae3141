package secret

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/domain/repository"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

// fileDocument is the on-disk layout of a secret file.
//
//	{
//	  "apiToken": "...",
//	  "privateKeys": {"solana": ["<base58>"], "ethereum": ["<hex>"]},
//	  "solanaKeygenFiles": ["id.json"]
//	}
//
// Keygen file paths are resolved relative to the secret file.
type fileDocument struct {
	APIToken          string                   `json:"apiToken"`
	PrivateKeys       map[model.Chain][]string `json:"privateKeys"`
	SolanaKeygenFiles []string                 `json:"solanaKeygenFiles"`
}

type fileSecrets struct {
	doc fileDocument
}

// NewFile loads a secret file once. Keygen files referenced from it are
// converted to base58 at load time.
func NewFile(path string) (repository.SecretRepository, error) {
	funcName := util.FuncName()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to read secret file: %w", err))
	}

	var doc fileDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to parse secret file: %w", err))
	}
	if doc.PrivateKeys == nil {
		doc.PrivateKeys = map[model.Chain][]string{}
	}

	for _, keygen := range doc.SolanaKeygenFiles {
		if !filepath.IsAbs(keygen) {
			keygen = filepath.Join(filepath.Dir(path), keygen)
		}
		key, err := SolanaKeygenFileToBase58(keygen)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, err)
		}
		doc.PrivateKeys[model.ChainSolana] = append(doc.PrivateKeys[model.ChainSolana], key)
	}

	return &fileSecrets{doc: doc}, nil
}

func (f *fileSecrets) APIToken(ctx context.Context) (string, error) {
	if f.doc.APIToken == "" {
		return "", util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("apiToken: %w", ErrSecretNotFound))
	}
	return f.doc.APIToken, nil
}

func (f *fileSecrets) PrivateKeys(ctx context.Context, chain model.Chain) ([]string, error) {
	keys := f.doc.PrivateKeys[chain]
	if len(keys) == 0 {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("privateKeys.%s: %w", chain, ErrSecretNotFound))
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out, nil
}

// SolanaKeygenFileToBase58 converts a solana-keygen JSON byte array into the
// base58 private key form the signer expects.
func SolanaKeygenFileToBase58(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to read keygen file: %w", err))
	}
	return KeygenBytesToBase58(b)
}

func KeygenBytesToBase58(b []byte) (string, error) {
	var raw []byte
	var ints []int
	if err := json.Unmarshal(b, &ints); err != nil {
		return "", util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("failed to parse keygen bytes: %w", err))
	}
	if len(ints) != 64 {
		return "", util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("invalid keygen length: %d", len(ints)))
	}
	for _, v := range ints {
		if v < 0 || v > 255 {
			return "", util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("invalid keygen byte: %d", v))
		}
		raw = append(raw, byte(v))
	}
	return base58.Encode(raw), nil
}
