// Package blob defines the blob storage boundary. The engine never stores
// file bytes in the database; it stores opaque handles issued by a Store.
//
// Design: handles are plain strings so corpus copies of the same content can
// share one blob by reference. The engine treats blobs as immutable: a
// handle, once issued, always resolves to the same bytes. Deduplication at
// the blob layer falls out of content addressing.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the requested handle does not resolve to a blob.
var ErrNotFound = errors.New("blob not found")

// Store is the external blob storage collaborator. Implementations take a
// byte stream and return an opaque handle; the engine only persists handles.
type Store interface {
	// Put stores the stream and returns a handle for later retrieval.
	// Storing identical content may return the same handle.
	Put(ctx context.Context, r io.Reader) (string, error)

	// Open returns a reader over the blob for a handle.
	// Returns ErrNotFound for unknown handles.
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
}
