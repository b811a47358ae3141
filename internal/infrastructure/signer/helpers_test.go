package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
)

const testKeyVersion = "projects/p/locations/global/keyRings/r/cryptoKeys/k/cryptoKeyVersions/1"

// unsignedSolanaTx builds a transfer paid by payer and returns it base64
// encoded with zeroed signatures, together with the serialized message.
func unsignedSolanaTx(t *testing.T, payer solana.PublicKey, extraSigners ...solana.PublicKey) (string, []byte) {
	t.Helper()

	instructions := []solana.Instruction{
		system.NewTransferInstruction(1002282880, payer, solana.NewWallet().PublicKey()).Build(),
	}
	for _, s := range extraSigners {
		instructions = append(instructions, system.NewTransferInstruction(1, s, payer).Build())
	}

	tx, err := solana.NewTransaction(instructions, solana.Hash{1, 2, 3}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	message, err := tx.Message.MarshalBinary()
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(raw), message
}

type staticSecrets struct {
	keys map[model.Chain][]string
}

func (s staticSecrets) APIToken(ctx context.Context) (string, error) {
	return "token", nil
}

func (s staticSecrets) PrivateKeys(ctx context.Context, chain model.Chain) ([]string, error) {
	keys, ok := s.keys[chain]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return keys, nil
}

type fakeKMS struct {
	name      string
	algorithm kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm
	pem       string

	edKey ed25519.PrivateKey
	ecKey *ecdsa.PrivateKey

	highS           bool
	corruptResponse bool
	signErr         error

	signRequests []*kmspb.AsymmetricSignRequest
}

func newFakeEd25519KMS(t *testing.T) *fakeKMS {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)

	return &fakeKMS{
		name:      testKeyVersion,
		algorithm: kmspb.CryptoKeyVersion_EC_SIGN_ED25519,
		pem:       string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		edKey:     priv,
	}
}

func newFakeSecp256k1KMS(t *testing.T) *fakeKMS {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	point := crypto.FromECDSAPub(&key.PublicKey)
	der, err := asn1.Marshal(struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}{
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}},
		PublicKey: asn1.BitString{Bytes: point, BitLength: len(point) * 8},
	})
	require.NoError(t, err)

	return &fakeKMS{
		name:      testKeyVersion,
		algorithm: kmspb.CryptoKeyVersion_EC_SIGN_SECP256K1_SHA256,
		pem:       string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		ecKey:     key,
	}
}

func (f *fakeKMS) GetPublicKey(ctx context.Context, req *kmspb.GetPublicKeyRequest, opts ...gax.CallOption) (*kmspb.PublicKey, error) {
	return &kmspb.PublicKey{
		Name:      f.name,
		Pem:       f.pem,
		PemCrc32C: wrapperspb.Int64(crc32c([]byte(f.pem))),
		Algorithm: f.algorithm,
	}, nil
}

func (f *fakeKMS) AsymmetricSign(ctx context.Context, req *kmspb.AsymmetricSignRequest, opts ...gax.CallOption) (*kmspb.AsymmetricSignResponse, error) {
	f.signRequests = append(f.signRequests, req)
	if f.signErr != nil {
		return nil, f.signErr
	}

	var signature []byte
	res := &kmspb.AsymmetricSignResponse{Name: req.Name}
	switch {
	case f.edKey != nil:
		signature = ed25519.Sign(f.edKey, req.Data)
		res.VerifiedDataCrc32C = req.GetDataCrc32C().GetValue() == crc32c(req.Data)
	case f.ecKey != nil:
		sig, err := crypto.Sign(req.GetDigest().GetSha256(), f.ecKey)
		if err != nil {
			return nil, err
		}
		r := new(big.Int).SetBytes(sig[:32])
		s := new(big.Int).SetBytes(sig[32:64])
		if f.highS {
			s = new(big.Int).Sub(secp256k1N, s)
		}
		signature, err = asn1.Marshal(struct{ R, S *big.Int }{r, s})
		if err != nil {
			return nil, err
		}
		res.VerifiedDigestCrc32C = req.GetDigestCrc32C().GetValue() == crc32c(req.GetDigest().GetSha256())
	}

	res.Signature = signature
	res.SignatureCrc32C = wrapperspb.Int64(crc32c(signature))
	if f.corruptResponse {
		res.SignatureCrc32C = wrapperspb.Int64(crc32c(signature) + 1)
	}
	return res, nil
}
