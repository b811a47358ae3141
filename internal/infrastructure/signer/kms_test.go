package signer

import (
	"context"
	"crypto/ed25519"
	"errors"
	"math/big"
	"testing"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
)

func TestKMSSolanaKey(t *testing.T) {
	fake := newFakeEd25519KMS(t)

	key, err := newKMSSolanaKey(context.Background(), fake, testKeyVersion)
	require.NoError(t, err)
	assert.Equal(t, solana.PublicKeyFromBytes(fake.edKey.Public().(ed25519.PublicKey)), key.PublicKey())

	unsigned, message := unsignedSolanaTx(t, key.PublicKey())
	signed, err := newSolanaSigner(key).Sign(context.Background(), model.UnsignedTransaction(unsigned))
	require.NoError(t, err)

	sig, err := solana.SignatureFromBase58(signed.Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(fake.edKey.Public().(ed25519.PublicKey), message, sig[:]))

	require.Len(t, fake.signRequests, 1)
	assert.Equal(t, message, fake.signRequests[0].Data)
	assert.Equal(t, crc32c(message), fake.signRequests[0].GetDataCrc32C().GetValue())
}

func TestKMSSolanaKey_Errors(t *testing.T) {
	t.Run("wrong algorithm", func(t *testing.T) {
		fake := newFakeEd25519KMS(t)
		fake.algorithm = kmspb.CryptoKeyVersion_EC_SIGN_SECP256K1_SHA256

		_, err := newKMSSolanaKey(context.Background(), fake, testKeyVersion)
		assert.ErrorContains(t, err, "unexpected key algorithm")
	})

	t.Run("key name mismatch", func(t *testing.T) {
		fake := newFakeEd25519KMS(t)
		fake.name = "other"

		_, err := newKMSSolanaKey(context.Background(), fake, testKeyVersion)
		assert.ErrorContains(t, err, "failed to get public key: invalid key name")
	})

	t.Run("corrupted signature", func(t *testing.T) {
		fake := newFakeEd25519KMS(t)
		fake.corruptResponse = true

		key, err := newKMSSolanaKey(context.Background(), fake, testKeyVersion)
		require.NoError(t, err)
		_, err = key.SignMessage(context.Background(), []byte("message"))
		assert.ErrorContains(t, err, "AsymmetricSign: response corrupted in-transit")
	})

	t.Run("sign failure", func(t *testing.T) {
		fake := newFakeEd25519KMS(t)
		fake.signErr = errors.New("permission denied")

		key, err := newKMSSolanaKey(context.Background(), fake, testKeyVersion)
		require.NoError(t, err)
		_, err = key.SignMessage(context.Background(), []byte("message"))
		assert.ErrorContains(t, err, "failed to sign data: permission denied")
	})
}

func TestKMSEthereumKey(t *testing.T) {
	for _, highS := range []bool{false, true} {
		fake := newFakeSecp256k1KMS(t)
		fake.highS = highS

		key, err := newKMSEthereumKey(context.Background(), fake, testKeyVersion)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(fake.ecKey.PublicKey), key.Address())

		to := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
		unsigned := encodeUnsigned(t, types.NewTx(&types.DynamicFeeTx{
			ChainID:   big.NewInt(17000),
			GasTipCap: big.NewInt(1e9),
			GasFeeCap: big.NewInt(30e9),
			Gas:       21000,
			To:        &to,
			Value:     big.NewInt(1000),
		}))

		signed, err := newEthereumSigner(key, "holesky").Sign(context.Background(), model.UnsignedTransaction(unsigned))
		require.NoError(t, err)

		signedTx := decodeSigned(t, signed.Signature)
		sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(17000)), signedTx)
		require.NoError(t, err)
		assert.Equal(t, key.Address(), sender)
	}
}

func TestKMSEthereumKey_Errors(t *testing.T) {
	t.Run("corrupted signature", func(t *testing.T) {
		fake := newFakeSecp256k1KMS(t)
		fake.corruptResponse = true

		key, err := newKMSEthereumKey(context.Background(), fake, testKeyVersion)
		require.NoError(t, err)
		_, err = key.SignHash(context.Background(), crypto.Keccak256([]byte("message")))
		assert.ErrorContains(t, err, "AsymmetricSign: response corrupted in-transit")
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		fake := newFakeEd25519KMS(t)

		_, err := newKMSEthereumKey(context.Background(), fake, testKeyVersion)
		assert.ErrorContains(t, err, "unexpected key algorithm")
	})
}

func TestParseSignature(t *testing.T) {
	_, _, err := parseSignature([]byte{0x01})
	assert.ErrorContains(t, err, "failed to unmarshal signature")
}
