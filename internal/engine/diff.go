// diff.go compares content versions of a path line.

package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/vellumdb/vellum/internal/diff"
	"github.com/vellumdb/vellum/internal/store"
)

// DiffVersions compares two content versions of the document at
// (corpus, path). Versions count from 1 at the lineage root, matching the
// version numbers shown in path listings.
func (s *Service) DiffVersions(ctx context.Context, corpusID int64, path string, v1, v2 int, principal string) (*diff.Result, error) {
	if !s.canReadCorpus(ctx, principal, corpusID) {
		return nil, store.ErrNotFound
	}
	node, err := s.store.ActivePath(ctx, corpusID, path)
	if err != nil {
		return nil, err
	}
	chain, err := s.store.ContentHistory(ctx, node.DocumentID)
	if err != nil {
		return nil, err
	}

	oldC, err := s.versionContent(ctx, chain, v1)
	if err != nil {
		return nil, err
	}
	newC, err := s.versionContent(ctx, chain, v2)
	if err != nil {
		return nil, err
	}

	r := diff.Compute(string(oldC), string(newC),
		fmt.Sprintf("%s@v%d", path, v1), fmt.Sprintf("%s@v%d", path, v2))
	return &r, nil
}

// versionContent reads the blob of the v-th version (1-based) of a lineage.
func (s *Service) versionContent(ctx context.Context, chain []store.Document, v int) ([]byte, error) {
	if v < 1 || v > len(chain) {
		return nil, fmt.Errorf("%w: version %d of %d", store.ErrNotFound, v, len(chain))
	}
	doc := chain[v-1]
	if doc.PDFFile == "" {
		return nil, fmt.Errorf("%w: version %d has no content blob", store.ErrNotFound, v)
	}
	rc, err := s.blobs.Open(ctx, doc.PDFFile)
	if err != nil {
		return nil, fmt.Errorf("open content of version %d: %w", v, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
