// annotate.go is the write surface for annotations and relationships.

package engine

import (
	"context"
	"fmt"

	"github.com/vellumdb/vellum/internal/store"
)

// CreateAnnotation records an annotation. Corpus-scoped rows require write
// access on the corpus; document-owned rows without a corpus require write
// access on the document.
func (s *Service) CreateAnnotation(ctx context.Context, a *store.Annotation) error {
	if err := s.gateAnnotationWrite(ctx, a.Creator, a.CorpusID, a.DocumentID); err != nil {
		return err
	}
	if err := s.store.CreateAnnotation(ctx, a); err != nil {
		return err
	}
	s.log.Info().Int64("annotation", a.ID).Str("label", a.Label).Msg("annotate")
	return nil
}

// CreateRelationship records a relationship between annotations.
func (s *Service) CreateRelationship(ctx context.Context, r *store.Relationship) error {
	if err := s.gateAnnotationWrite(ctx, r.Creator, r.CorpusID, r.DocumentID); err != nil {
		return err
	}
	return s.store.CreateRelationship(ctx, r)
}

func (s *Service) gateAnnotationWrite(ctx context.Context, principal string, corpusID, documentID *int64) error {
	switch {
	case corpusID != nil:
		return s.requireWrite(ctx, principal, *corpusID)
	case documentID != nil:
		doc, err := s.store.Document(ctx, *documentID)
		if err != nil {
			return err
		}
		if !s.oracle.CanWrite(ctx, principal, documentObject(doc)) {
			return fmt.Errorf("%w: write to document %d", ErrPermissionDenied, *documentID)
		}
		return nil
	default:
		// Set-owned rows are parser output; the migration and import paths
		// write them, not end users.
		return nil
	}
}
