// vector.go implements similarity search at the gateway level: obtain the
// query vector (outside any transaction), gate on supported dimensions, and
// delegate ranking to the store.

package engine

import (
	"context"
	"fmt"

	"github.com/vellumdb/vellum/internal/embedder"
	"github.com/vellumdb/vellum/internal/store"
)

// VectorQuery is a similarity search request. Exactly one of Text and
// Embedding should be supplied; a present Embedding wins.
type VectorQuery struct {
	Text      string
	Embedding []float32
	TopK      int

	// Filter selects the candidate annotations with the same version-aware
	// rules as plain annotation queries.
	Filter store.AnnotationQuery
}

// VectorSearch ranks annotations by similarity to the query. Results carry
// the caller's permission flags like plain annotation queries do. Query
// embeddings with unsupported dimensions fall back to a limited scan of the
// filtered set with uniform score 1.0.
func (s *Service) VectorSearch(ctx context.Context, q VectorQuery) ([]ScoredView, error) {
	if q.TopK <= 0 {
		q.TopK = 10
	}
	// Candidates must live on content still placed somewhere: a corpus
	// filter without the deletion check would surface annotations of
	// trashed documents.
	q.Filter.SkipCorpusCheck = false

	if ok, err := s.canReadScope(ctx, q.Filter); !ok || err != nil {
		return nil, err
	}

	vec := q.Embedding
	if vec == nil && q.Text != "" {
		if s.embed == nil {
			return nil, fmt.Errorf("text query requires an embedder")
		}
		var err error
		if vec, err = s.embed.Embed(ctx, q.Text); err != nil {
			return nil, fmt.Errorf("embed query text: %w", err)
		}
	}

	var scored []store.ScoredAnnotation
	var err error
	switch {
	case vec != nil && embedder.SupportedDims[len(vec)]:
		path := ""
		if s.embed != nil {
			path = s.embed.Path()
		}
		scored, err = s.store.SearchByEmbedding(ctx, q.Filter, vec, path, q.TopK)
	default:
		if vec != nil {
			s.log.Warn().Int("dims", len(vec)).Msg("unsupported embedding dimension, falling back to scan")
		}
		scored, err = s.store.ScanLimited(ctx, q.Filter, q.TopK)
	}
	if err != nil {
		return nil, err
	}

	flags, err := s.queryFlags(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	views := make([]ScoredView, len(scored))
	for i, sa := range scored {
		views[i] = ScoredView{
			AnnotationView: AnnotationView{Annotation: sa.Annotation, CanRead: true},
			Score:          sa.Score,
		}
		if !sa.Annotation.Structural {
			views[i].CanUpdate = flags.update
			views[i].CanDelete = flags.delete
		}
	}
	return views, nil
}

// ScoredView pairs a permission-stamped annotation with its similarity
// score.
type ScoredView struct {
	AnnotationView
	Score float64 `json:"similarity_score"`
}

// EmbedAnnotation generates and stores the embedding for an annotation's
// text under the configured embedder. Generation happens before any
// database write.
func (s *Service) EmbedAnnotation(ctx context.Context, annotationID int64) error {
	if s.embed == nil {
		return fmt.Errorf("no embedder configured")
	}
	a, err := s.store.Annotation(ctx, annotationID)
	if err != nil {
		return err
	}
	vec, err := s.embed.Embed(ctx, a.RawText)
	if err != nil {
		return fmt.Errorf("embed annotation %d: %w", annotationID, err)
	}
	return s.store.StoreEmbedding(ctx, annotationID, s.embed.Path(), vec)
}
