package signer

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// decodePayload accepts hex (with or without 0x) and falls back to standard
// base64. A payload that is valid as both is decoded as hex.
func decodePayload(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if s == "" {
		return nil, fmt.Errorf("empty transaction payload")
	}

	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed)%2 == 0 {
		if b, err := hex.DecodeString(trimmed); err == nil {
			return b, nil
		}
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("transaction payload is neither hex nor base64: %w", err)
	}
	return b, nil
}
