package main

import (
	"encoding/hex"
	"fmt"

	"github.com/zault/zault/internal/crypto"
)

// parseHash decodes a hex-encoded block hash as accepted on the
// command line by get and verify.
func parseHash(s string) (crypto.Hash, error) {
	var h crypto.Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(decoded) != len(h) {
		return h, fmt.Errorf("invalid hash %q: want %d bytes, got %d", s, len(h), len(decoded))
	}
	copy(h[:], decoded)
	return h, nil
}
