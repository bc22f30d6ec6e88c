// Package hasher computes the content fingerprints used as document identity
// and deduplication keys across the engine.
//
// Design: SHA-256 over the full byte content, hex encoded. No chunking
// semantics are exposed; the hash is the canonical content identity.
// Collisions are assumed negligible and not mitigated.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Sum returns the hex-encoded SHA-256 of content.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// SumReader returns the hex-encoded SHA-256 of everything read from r.
// Use this for large blobs to avoid holding the full content in memory.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
