// vector.go implements similarity search over annotation embeddings.
//
// Vectors live in annotation_embeddings as little-endian float32 blobs, one
// per (annotation, embedder model). Search filters candidates with the same
// version-aware predicate as plain annotation queries, then ranks by cosine
// similarity in process. Candidate sets are the annotations of one document
// or corpus, small enough that a linear scan beats maintaining an index.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/vellumdb/vellum/internal/embedder"
	"github.com/vellumdb/vellum/internal/predicate"
)

// ScoredAnnotation pairs an annotation with its similarity to a query
// vector. Fallback scans assign the uniform score 1.0.
type ScoredAnnotation struct {
	Annotation Annotation
	Score      float64
}

// StoreEmbedding records the vector for an annotation under the given
// embedder model, replacing any previous vector from the same model.
func (s *SQLiteStore) StoreEmbedding(ctx context.Context, annotationID int64, embedderPath string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty embedding for annotation %d", ErrPreconditionFailed, annotationID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annotation_embeddings (annotation_id, embedder_path, dims, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (annotation_id, embedder_path) DO UPDATE
		SET dims = excluded.dims, vector = excluded.vector, created_at = excluded.created_at`,
		annotationID, embedderPath, len(vec), embedder.Encode(vec), s.now())
	if err != nil {
		return fmt.Errorf("store embedding for annotation %d: %w", annotationID, mapSQLiteErr(err))
	}
	return nil
}

// Embedding returns the stored vector for (annotation, embedder model).
func (s *SQLiteStore) Embedding(ctx context.Context, annotationID int64, embedderPath string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT vector FROM annotation_embeddings
		WHERE annotation_id = ? AND embedder_path = ?`,
		annotationID, embedderPath).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load embedding for annotation %d: %w", annotationID, err)
	}
	return embedder.Decode(blob)
}

// SearchByEmbedding ranks annotations matching q by cosine similarity to
// vec, returning the top k. Only annotations that carry a vector from the
// same embedder model participate; dimension mismatches score 0 and sink.
func (s *SQLiteStore) SearchByEmbedding(ctx context.Context, q AnnotationQuery, vec []float32, embedderPath string, k int) ([]ScoredAnnotation, error) {
	anns, err := s.searchCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(anns) == 0 || k <= 0 {
		return nil, nil
	}

	scored := make([]ScoredAnnotation, 0, len(anns))
	for _, a := range anns {
		var blob []byte
		err := s.db.QueryRowContext(ctx, `
			SELECT vector FROM annotation_embeddings
			WHERE annotation_id = ? AND embedder_path = ?`,
			a.ID, embedderPath).Scan(&blob)
		if errors.Is(err, sql.ErrNoRows) {
			continue // no vector from this model
		}
		if err != nil {
			return nil, fmt.Errorf("load embedding for annotation %d: %w", a.ID, err)
		}
		stored, err := embedder.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for annotation %d: %w", a.ID, err)
		}
		scored = append(scored, ScoredAnnotation{Annotation: a, Score: embedder.Cosine(vec, stored)})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// searchCandidates filters annotations eligible for ranking. On top of the
// plain query rules, non-structural candidates must sit on content still
// placed somewhere: the annotation's document must belong to a version tree
// with an active, non-deleted path in the annotation's own corpus.
// Corpus-scoped queries already enforce this; document-scoped and unscoped
// searches need it here, or trashed documents would keep ranking.
func (s *SQLiteStore) searchCandidates(ctx context.Context, q AnnotationQuery) ([]Annotation, error) {
	pred, err := s.buildAnnotationPred(ctx, q, true)
	if err != nil {
		return nil, err
	}
	if !q.SkipCorpusCheck {
		pred = predicate.And(pred, predicate.Or(
			predicate.NotNull("structural_set_id"),
			predicate.Raw(`EXISTS (
				SELECT 1 FROM documents d
				JOIN documents cur ON cur.version_tree_id = d.version_tree_id
				JOIN document_paths p ON p.document_id = cur.id
				WHERE d.id = annotations.document_id
				  AND p.corpus_id = annotations.corpus_id
				  AND p.is_current = 1 AND p.is_deleted = 0)`),
		))
	}
	where, args := predicate.Where(pred)
	rows, err := s.db.QueryContext(ctx, `SELECT `+annCols+` FROM annotations`+where+` ORDER BY page, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query search candidates: %w", err)
	}
	return collect(rows, scanAnnotation)
}

// ScanLimited is the fallback for unsupported embedding dimensions: the
// first k annotations of the filtered set with the uniform score 1.0.
func (s *SQLiteStore) ScanLimited(ctx context.Context, q AnnotationQuery, k int) ([]ScoredAnnotation, error) {
	anns, err := s.searchCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(anns) > k {
		anns = anns[:k]
	}
	out := make([]ScoredAnnotation, len(anns))
	for i, a := range anns {
		out[i] = ScoredAnnotation{Annotation: a, Score: 1.0}
	}
	return out, nil
}
