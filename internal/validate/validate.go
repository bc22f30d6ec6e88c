// Package validate provides input validation for the store layer.
//
// Design Decision: Validation happens at the store layer (not just the
// engine layer) because the store is the persistence boundary. Anyone with
// direct store access (tooling, tests, future code paths) must have their
// inputs validated. The engine layer passes config (MaxPath, MaxContent)
// via options structs.
package validate

import (
	"fmt"
	"strings"

	"github.com/vellumdb/vellum/internal/docpath"
)

// Path validates a corpus path and returns the normalised form.
//
// Validation rules:
//   - Empty paths rejected (would create ambiguous root documents)
//   - Null bytes rejected (security: prevents path injection attacks)
//   - Max length enforced if maxLen > 0 (0 means no limit, used by reads)
//   - Normalisation via docpath.Normalise (traversal, leading slashes, etc.)
func Path(p string, maxLen int) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: null byte in path", ErrInvalidPath)
	}
	if maxLen > 0 && len(p) > maxLen {
		return "", ErrPathTooLong
	}

	norm, err := docpath.Normalise(p)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return norm, nil
}

// Content validates document content against a size limit.
// A limit of 0 means unlimited (not recommended for writes).
func Content(content []byte, maxLen int64) error {
	if maxLen > 0 && int64(len(content)) > maxLen {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrContentTooLarge, len(content), maxLen)
	}
	return nil
}

// User validates a principal identifier. Writes require a non-empty user;
// reads may pass empty for anonymous access.
func User(u string) (string, error) {
	u = strings.TrimSpace(u)
	if u == "" {
		return "", fmt.Errorf("%w: empty user", ErrInvalidUser)
	}
	if strings.ContainsRune(u, 0) {
		return "", fmt.Errorf("%w: null byte in user", ErrInvalidUser)
	}
	return u, nil
}

// Name validates a corpus or folder name.
func Name(n string) (string, error) {
	n = strings.TrimSpace(n)
	if n == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsAny(n, "/\x00") {
		return "", fmt.Errorf("%w: name may not contain slashes or null bytes", ErrInvalidName)
	}
	return n, nil
}
