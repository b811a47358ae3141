package secret

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
)

func testEnv(env map[string]string) *envSecrets {
	return &envSecrets{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
}

func TestEnv_APIToken(t *testing.T) {
	s := testEnv(map[string]string{"P2P_API_TOKEN": "token"})
	token, err := s.APIToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token", token)

	_, err = testEnv(nil).APIToken(context.Background())
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.EqualError(t, err, "secret.APIToken: P2P_API_TOKEN: secret not found")
}

func TestEnv_PrivateKeys(t *testing.T) {
	s := testEnv(map[string]string{
		"SOLANA_PRIVATE_KEYS":   " key1, key2 ,,",
		"ETHEREUM_PRIVATE_KEYS": "",
	})

	keys, err := s.PrivateKeys(context.Background(), model.ChainSolana)
	require.NoError(t, err)
	assert.Equal(t, []string{"key1", "key2"}, keys)

	_, err = s.PrivateKeys(context.Background(), model.ChainEthereum)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	_, err = s.PrivateKeys(context.Background(), model.Chain("cosmos"))
	assert.ErrorIs(t, err, model.ErrUnsupportedChain)
}

func TestNewEnv_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("P2P_API_TOKEN", "from-env")

	token, err := NewEnv().APIToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
}

func writeKeygen(t *testing.T, dir string) ([]byte, string) {
	t.Helper()
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i)
	}
	ints := make([]int, len(raw))
	for i, b := range raw {
		ints[i] = int(b)
	}
	b, err := json.Marshal(ints)
	require.NoError(t, err)
	path := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return raw, path
}

func TestNewFile(t *testing.T) {
	dir := t.TempDir()
	raw, _ := writeKeygen(t, dir)

	doc := `{
		"apiToken": "token",
		"privateKeys": {"solana": ["base58key"], "ethereum": ["0xabc"]},
		"solanaKeygenFiles": ["id.json"]
	}`
	path := filepath.Join(dir, "secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := NewFile(path)
	require.NoError(t, err)

	token, err := s.APIToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token", token)

	keys, err := s.PrivateKeys(context.Background(), model.ChainSolana)
	require.NoError(t, err)
	assert.Equal(t, []string{"base58key", base58.Encode(raw)}, keys)

	keys, err = s.PrivateKeys(context.Background(), model.ChainEthereum)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc"}, keys)
}

func TestNewFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read secret file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = NewFile(bad)
	assert.ErrorContains(t, err, "failed to parse secret file")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("{}"), 0o600))
	s, err := NewFile(empty)
	require.NoError(t, err)
	_, err = s.APIToken(context.Background())
	assert.ErrorIs(t, err, ErrSecretNotFound)
	_, err = s.PrivateKeys(context.Background(), model.ChainSolana)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestKeygenBytesToBase58(t *testing.T) {
	tests := []struct {
		name           string
		in             string
		wantErrMessage string
	}{
		{name: "too short", in: `[1,2,3]`, wantErrMessage: "secret.KeygenBytesToBase58: invalid keygen length: 3"},
		{name: "not an array", in: `"abc"`, wantErrMessage: "failed to parse keygen bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KeygenBytesToBase58([]byte(tt.in))
			assert.ErrorContains(t, err, tt.wantErrMessage)
		})
	}

	_, path := writeKeygen(t, t.TempDir())
	key, err := SolanaKeygenFileToBase58(path)
	require.NoError(t, err)
	decoded, err := base58.Decode(key)
	require.NoError(t, err)
	assert.Len(t, decoded, 64)
}
