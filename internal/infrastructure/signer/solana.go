package signer

import (
	"context"
	"crypto/ed25519"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

type solanaSigner struct {
	keys map[solana.PublicKey]solanaKey
}

func newSolanaSigner(keys ...solanaKey) *solanaSigner {
	m := make(map[solana.PublicKey]solanaKey, len(keys))
	for _, k := range keys {
		m[k.PublicKey()] = k
	}
	return &solanaSigner{keys: m}
}

// Sign fills in every required signature it holds a key for. The fee payer
// signature is mandatory and is returned base58 encoded; the payload is
// handed back untouched.
func (s *solanaSigner) Sign(ctx context.Context, unsigned model.UnsignedTransaction) (*model.SignedTransaction, error) {
	funcName := util.FuncName()

	raw, err := decodePayload(string(unsigned))
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to decode solana transaction: %w", err))
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to encode solana message: %w", err))
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 || required > len(tx.Message.AccountKeys) {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("invalid number of required signatures: %d", required))
	}

	signatures := make([]solana.Signature, required)
	copy(signatures, tx.Signatures)

	for i, signerKey := range tx.Message.AccountKeys[:required] {
		key, ok := s.keys[signerKey]
		if !ok {
			if i == 0 {
				return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("no key for fee payer %s", signerKey))
			}
			log.Warn().Str("signer", signerKey.String()).Msg(util.WrapLogMessage(packageName, funcName, "no key for required signer, leaving signature empty"))
			continue
		}

		sig, err := key.SignMessage(ctx, message)
		if err != nil {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("failed to sign message for %s: %w", signerKey, err))
		}
		if !ed25519.Verify(ed25519.PublicKey(signerKey[:]), message, sig[:]) {
			return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("signature for %s does not verify", signerKey))
		}
		signatures[i] = sig
	}
	tx.Signatures = signatures

	log.Debug().Str("signature", tx.Signatures[0].String()).Msg(util.WrapLogMessage(packageName, funcName, "signed solana transaction"))

	return &model.SignedTransaction{
		Signature:   tx.Signatures[0].String(),
		Transaction: string(unsigned),
	}, nil
}
