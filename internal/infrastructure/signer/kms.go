package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"hash/crc32"
	"math/big"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yukia3e/unified-staking-poc/internal/util"
)

var (
	secp256k1N, _  = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	secp256k1halfN = new(big.Int).Div(secp256k1N, big.NewInt(2))

	castagnoli = crc32.MakeTable(crc32.Castagnoli)
)

// KMSClient is the subset of *kms.KeyManagementClient used for signing.
type KMSClient interface {
	GetPublicKey(ctx context.Context, req *kmspb.GetPublicKeyRequest, opts ...gax.CallOption) (*kmspb.PublicKey, error)
	AsymmetricSign(ctx context.Context, req *kmspb.AsymmetricSignRequest, opts ...gax.CallOption) (*kmspb.AsymmetricSignResponse, error)
}

func crc32c(data []byte) int64 {
	return int64(crc32.Checksum(data, castagnoli))
}

// fetchPublicKeyPEM returns the verified PEM block of a key version.
func fetchPublicKeyPEM(ctx context.Context, client KMSClient, keyVersion string) (*pem.Block, kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm, error) {
	funcName := util.FuncName()

	publicKeyResponse, err := client.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{
		Name: keyVersion,
	})
	if err != nil {
		return nil, 0, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: %w", err))
	}
	if publicKeyResponse.Name != keyVersion {
		return nil, 0, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: invalid key name"))
	}
	publicKeyPEM := publicKeyResponse.Pem
	if publicKeyPEM == "" {
		return nil, 0, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: empty PEM"))
	}
	if crc32c([]byte(publicKeyPEM)) != publicKeyResponse.GetPemCrc32C().GetValue() {
		return nil, 0, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: invalid CRC32"))
	}

	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, 0, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to decode public key"))
	}

	return block, publicKeyResponse.Algorithm, nil
}

type kmsSolanaKey struct {
	client     KMSClient
	keyVersion string
	publicKey  solana.PublicKey
}

func newKMSSolanaKey(ctx context.Context, client KMSClient, keyVersion string) (*kmsSolanaKey, error) {
	funcName := util.FuncName()

	block, algorithm, err := fetchPublicKeyPEM(ctx, client, keyVersion)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}
	if algorithm != kmspb.CryptoKeyVersion_EC_SIGN_ED25519 {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("unexpected key algorithm: %s", algorithm))
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to parse public key: %w", err))
	}
	edPub, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("public key is not ed25519"))
	}

	return &kmsSolanaKey{
		client:     client,
		keyVersion: keyVersion,
		publicKey:  solana.PublicKeyFromBytes(edPub),
	}, nil
}

func (k *kmsSolanaKey) PublicKey() solana.PublicKey {
	return k.publicKey
}

func (k *kmsSolanaKey) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	funcName := util.FuncName()

	signResponse, err := k.client.AsymmetricSign(ctx, &kmspb.AsymmetricSignRequest{
		Name:       k.keyVersion,
		Data:       message,
		DataCrc32C: wrapperspb.Int64(crc32c(message)),
	})
	if err != nil {
		return solana.Signature{}, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign data: %w", err))
	}
	if !signResponse.VerifiedDataCrc32C {
		return solana.Signature{}, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("AsymmetricSign: request corrupted in-transit"))
	}
	if crc32c(signResponse.Signature) != signResponse.GetSignatureCrc32C().GetValue() {
		return solana.Signature{}, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("AsymmetricSign: response corrupted in-transit"))
	}
	if len(signResponse.Signature) != ed25519.SignatureSize {
		return solana.Signature{}, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign data: invalid signature length %d", len(signResponse.Signature)))
	}

	return solana.SignatureFromBytes(signResponse.Signature), nil
}

type kmsEthereumKey struct {
	client     KMSClient
	keyVersion string
	publicKey  *ecdsa.PublicKey
}

func newKMSEthereumKey(ctx context.Context, client KMSClient, keyVersion string) (*kmsEthereumKey, error) {
	funcName := util.FuncName()

	block, algorithm, err := fetchPublicKeyPEM(ctx, client, keyVersion)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}
	if algorithm != kmspb.CryptoKeyVersion_EC_SIGN_SECP256K1_SHA256 {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("unexpected key algorithm: %s", algorithm))
	}

	pubKey, err := getPublicKeyFromDecodedPEM(block)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to get public key: %w", err))
	}

	return &kmsEthereumKey{
		client:     client,
		keyVersion: keyVersion,
		publicKey:  &pubKey,
	}, nil
}

func (k *kmsEthereumKey) Address() common.Address {
	return crypto.PubkeyToAddress(*k.publicKey)
}

// SignHash signs a Keccak digest. KMS only accepts SHA-256 digests for this
// key type, so the Keccak hash is passed in the SHA-256 slot.
func (k *kmsEthereumKey) SignHash(ctx context.Context, hash []byte) ([]byte, error) {
	funcName := util.FuncName()

	signResponse, err := k.client.AsymmetricSign(ctx, &kmspb.AsymmetricSignRequest{
		Name: k.keyVersion,
		Digest: &kmspb.Digest{
			Digest: &kmspb.Digest_Sha256{
				Sha256: hash,
			},
		},
		DigestCrc32C: wrapperspb.Int64(crc32c(hash)),
	})
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign digest: %w", err))
	}

	if len(signResponse.Signature) == 0 {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign digest: empty signature"))
	}

	if crc32c(signResponse.Signature) != signResponse.GetSignatureCrc32C().GetValue() {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("AsymmetricSign: response corrupted in-transit"))
	}

	r, s, err := parseSignature(signResponse.Signature)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to parse signature: %w", err))
	}

	for _, v := range []byte{0, 1} {
		candidateSignature := make([]byte, 65)
		r.FillBytes(candidateSignature[:32])
		s.FillBytes(candidateSignature[32:64])
		candidateSignature[64] = v

		candidateRawPublicKey, err := crypto.Ecrecover(hash, candidateSignature)
		if err != nil {
			continue
		}

		candidatePublicKey, err := crypto.UnmarshalPubkey(candidateRawPublicKey)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to parse public key: %w", err))
		}

		if candidatePublicKey.Equal(k.publicKey) {
			return candidateSignature, nil
		}
	}

	return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign digest: invalid signature"))
}

func getPublicKeyFromDecodedPEM(block *pem.Block) (ecdsa.PublicKey, error) {
	funcName := util.FuncName()

	var pki struct {
		Raw       asn1.RawContent
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}

	_, err := asn1.Unmarshal(block.Bytes, &pki)
	if err != nil {
		return ecdsa.PublicKey{}, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to unmarshal public key: %w", err))
	}
	asn1Data := pki.PublicKey.RightAlign()
	if len(asn1Data) != 65 || asn1Data[0] != 0x04 {
		return ecdsa.PublicKey{}, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("unexpected public key encoding"))
	}
	x, y := asn1Data[1:33], asn1Data[33:]
	pubKey := ecdsa.PublicKey{Curve: crypto.S256(), X: new(big.Int).SetBytes(x), Y: new(big.Int).SetBytes(y)}

	return pubKey, nil
}

func parseSignature(signature []byte) (r *big.Int, s *big.Int, err error) {
	funcName := util.FuncName()

	sig := new(struct {
		R *big.Int
		S *big.Int
	})

	_, err = asn1.Unmarshal(signature, sig)
	if err != nil {
		return nil, nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to unmarshal signature: %w", err))
	}

	if sig.S.Cmp(secp256k1halfN) > 0 {
		sig.S = new(big.Int).Sub(secp256k1N, sig.S)
	}

	return sig.R, sig.S, nil
}
