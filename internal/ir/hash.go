package ir

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Digest returns the standard Base64 encoding of SHA-256(data).
// The output is always 44 characters.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ContentHash canonicalizes v and digests the result.
// Returns error if v cannot be canonically marshaled.
func ContentHash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return Digest(canonical), nil
}

// MustContentHash is like ContentHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustContentHash(v Value) string {
	h, err := ContentHash(v)
	if err != nil {
		panic(err)
	}
	return h
}
