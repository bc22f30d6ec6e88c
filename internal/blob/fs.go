// fs.go implements a content-addressed filesystem blob store.
//
// Layout: <root>/<hash[:2]>/<hash> where hash is the hex SHA-256 of the
// content. The two-char fan-out keeps directory sizes manageable for large
// stores. Writes go through a temp file and rename so a crashed Put never
// leaves a partial blob at a final handle.

package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore stores blobs as content-addressed files under a root directory.
type FSStore struct {
	root string
}

var _ Store = (*FSStore)(nil)

// NewFSStore creates (if needed) and opens a filesystem blob store rooted
// at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", dir, err)
	}
	return &FSStore{root: dir}, nil
}

// Put streams r into the store and returns the content hash as the handle.
// Identical content always yields the same handle, so re-imports of known
// bytes are free.
func (s *FSStore) Put(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, "put-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after successful rename

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}

	handle := hex.EncodeToString(h.Sum(nil))
	dst := s.pathFor(handle)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	// Existing blob for this hash already holds identical bytes.
	if _, err := os.Stat(dst); err == nil {
		return handle, nil
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store blob %s: %w", handle, err)
	}
	return handle, nil
}

// Open returns a reader for a stored blob.
func (s *FSStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validHandle(handle) {
		return nil, fmt.Errorf("%w: malformed handle %q", ErrNotFound, handle)
	}
	f, err := os.Open(s.pathFor(handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
		}
		return nil, fmt.Errorf("open blob %s: %w", handle, err)
	}
	return f, nil
}

func (s *FSStore) pathFor(handle string) string {
	return filepath.Join(s.root, handle[:2], handle)
}

// validHandle rejects handles that could escape the root or index past the
// fan-out prefix.
func validHandle(handle string) bool {
	if len(handle) < 3 {
		return false
	}
	if strings.ContainsAny(handle, "/\\") {
		return false
	}
	if !fs.ValidPath(handle) {
		return false
	}
	return true
}
