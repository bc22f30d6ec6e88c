// Package docpath provides document path normalisation and validation.
//
// All paths in a corpus pass through this package before storage or lookup.
// A corpus path space is flat strings with forward-slash separators; the
// folder tree is tracked independently via folder references, so a path is
// normalised purely as a string.
//
// Security: path traversal sequences are rejected outright. Paths are also
// persisted verbatim into the database, so normalisation here is the single
// point where two spellings of the same location converge.
//
// Normalisation rules:
//   - Forward slashes only
//   - No leading or trailing slashes
//   - No "." or ".." components
//   - Empty paths are rejected
package docpath

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrInvalid indicates the provided document path is invalid.
var ErrInvalid = errors.New("invalid document path")

// ErrTooLong indicates the document path exceeds the configured maximum length.
var ErrTooLong = errors.New("document path too long")

// Normalise cleans and validates a corpus path.
// It ensures paths use forward slashes, have no leading/trailing slashes,
// and contain no directory traversal sequences.
func Normalise(p string) (string, error) {
	if p == "" {
		return "", ErrInvalid
	}

	p = filepath.Clean(p)
	p = filepath.ToSlash(p)

	// Must be after ToSlash for Windows input
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")

	if p == "" || p == "." || p == ".." {
		return "", ErrInvalid
	}
	if strings.Contains(p, "..") {
		return "", ErrInvalid
	}

	return p, nil
}

// Dir returns the parent component of a normalised path, or "" for
// top-level paths. Used to suggest a folder when importing into a
// folder-less location.
func Dir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// Base returns the final component of a normalised path.
func Base(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return p
	}
	return p[i+1:]
}
