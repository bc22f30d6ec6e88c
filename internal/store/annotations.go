// annotations.go implements annotation and relationship storage plus the
// version-aware queries over them.
//
// Ownership is XOR: a row belongs to exactly one document instance or to one
// structural set, never both. The schema enforces it with CHECK constraints;
// the store validates up front for better error messages.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vellumdb/vellum/internal/predicate"
	"github.com/vellumdb/vellum/internal/validate"
)

// AnnotationQuery selects annotations (and relationships) version-aware.
// The zero value gives the strictest useful view: current versions only,
// corpus-deletion check on, anonymous viewer.
type AnnotationQuery struct {
	DocumentID *int64
	CorpusID   *int64

	// Label and Page narrow the result; zero values mean no filter.
	Label string
	Page  *int

	// AllVersions includes annotations on superseded content versions.
	AllVersions bool
	// SkipCorpusCheck disables the restriction to documents with an active
	// path in CorpusID. Only meaningful when CorpusID is set.
	SkipCorpusCheck bool

	// Viewer is the requesting principal; empty means anonymous. Named
	// viewers see structural rows plus their own; anonymous callers see
	// structural rows plus public ones.
	Viewer string
}

// CreateAnnotation inserts an annotation. Exactly one of DocumentID and
// StructuralSetID must be set, and set-owned rows must be structural.
func (s *SQLiteStore) CreateAnnotation(ctx context.Context, a *Annotation) error {
	if err := checkOwnership(a.DocumentID, a.StructuralSetID, a.Structural); err != nil {
		return err
	}
	creator, err := validate.User(a.Creator)
	if err != nil {
		return err
	}
	a.Creator = creator

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO annotations (document_id, structural_set_id, corpus_id, page,
			raw_text, label, structural, is_public, creator, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.DocumentID, a.StructuralSetID, a.CorpusID, a.Page, a.RawText,
		a.Label, a.Structural, a.IsPublic, a.Creator, now, now)
	if err != nil {
		return fmt.Errorf("create annotation: %w", mapSQLiteErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create annotation: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.ModifiedAt = now
	return nil
}

// Annotation retrieves an annotation by id.
func (s *SQLiteStore) Annotation(ctx context.Context, id int64) (*Annotation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+annCols+` FROM annotations WHERE id = ?`, id)
	return one(scanAnnotation(row))
}

// DeleteAnnotation removes an annotation. Relationships referencing it drop
// the membership rows via the schema's cascade.
func (s *SQLiteStore) DeleteAnnotation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete annotation %d: %w", id, mapSQLiteErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete annotation %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: annotation %d", ErrNotFound, id)
	}
	return nil
}

// CreateRelationship inserts a relationship and its source and target
// memberships in one transaction. Ownership rules match CreateAnnotation.
func (s *SQLiteStore) CreateRelationship(ctx context.Context, r *Relationship) error {
	if err := checkOwnership(r.DocumentID, r.StructuralSetID, r.Structural); err != nil {
		return err
	}
	creator, err := validate.User(r.Creator)
	if err != nil {
		return err
	}
	r.Creator = creator

	return s.Tx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO relationships (document_id, structural_set_id, corpus_id,
				label, structural, is_public, creator, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.DocumentID, r.StructuralSetID, r.CorpusID, r.Label,
			r.Structural, r.IsPublic, r.Creator, now, now)
		if err != nil {
			return fmt.Errorf("create relationship: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create relationship: %w", err)
		}
		for _, annID := range r.SourceIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO relationship_sources (relationship_id, annotation_id) VALUES (?, ?)`,
				id, annID); err != nil {
				return fmt.Errorf("link source annotation %d: %w", annID, err)
			}
		}
		for _, annID := range r.TargetIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO relationship_targets (relationship_id, annotation_id) VALUES (?, ?)`,
				id, annID); err != nil {
				return fmt.Errorf("link target annotation %d: %w", annID, err)
			}
		}
		r.ID = id
		r.CreatedAt = now
		r.ModifiedAt = now
		return nil
	})
}

// Relationship retrieves a relationship with its memberships.
func (s *SQLiteStore) Relationship(ctx context.Context, id int64) (*Relationship, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+relCols+` FROM relationships WHERE id = ?`, id)
	r, err := one(scanRelationship(row))
	if err != nil {
		return nil, err
	}
	if err := s.loadMemberships(ctx, []*Relationship{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// Annotations returns annotations matching q, ordered by page then id.
//
// Version awareness: by default only annotations on current content versions
// are returned, except structural rows, which survive version flips because
// they belong to the content, not the instance. An inner filter on
// is_current alone would silently drop them.
func (s *SQLiteStore) Annotations(ctx context.Context, q AnnotationQuery) ([]Annotation, error) {
	pred, err := s.buildAnnotationPred(ctx, q, true)
	if err != nil {
		return nil, err
	}
	where, args := predicate.Where(pred)
	rows, err := s.db.QueryContext(ctx, `SELECT `+annCols+` FROM annotations`+where+` ORDER BY page, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	return collect(rows, scanAnnotation)
}

// Relationships returns relationships matching q with memberships loaded.
func (s *SQLiteStore) Relationships(ctx context.Context, q AnnotationQuery) ([]Relationship, error) {
	pred, err := s.buildAnnotationPred(ctx, q, false)
	if err != nil {
		return nil, err
	}
	where, args := predicate.Where(pred)
	rows, err := s.db.QueryContext(ctx, `SELECT `+relCols+` FROM relationships`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	rels, err := collect(rows, scanRelationship)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*Relationship, len(rels))
	for i := range rels {
		ptrs[i] = &rels[i]
	}
	if err := s.loadMemberships(ctx, ptrs); err != nil {
		return nil, err
	}
	return rels, nil
}

// buildAnnotationPred translates an AnnotationQuery into a predicate over
// the annotations or relationships table. withPage gates the page filter,
// which relationships do not carry.
func (s *SQLiteStore) buildAnnotationPred(ctx context.Context, q AnnotationQuery, withPage bool) (predicate.Pred, error) {
	var preds []predicate.Pred

	if !q.AllVersions {
		preds = append(preds, predicate.Or(
			predicate.NotNull("structural_set_id"),
			predicate.Raw("document_id IN (SELECT id FROM documents WHERE is_current = 1)"),
		))
	}

	if q.CorpusID != nil && !q.SkipCorpusCheck {
		// Documents whose every path in the corpus is deleted drop out of
		// corpus-scoped results; structural rows stay, since content outlives
		// any one placement. The check is keyed to the version tree, not the
		// instance: a superseded version has no active node of its own, yet
		// its annotations stay reachable while the line lives.
		preds = append(preds, predicate.Or(
			predicate.NotNull("structural_set_id"),
			predicate.Raw(`document_id IN (
				SELECT d.id FROM documents d
				JOIN documents cur ON cur.version_tree_id = d.version_tree_id
				JOIN document_paths p ON p.document_id = cur.id
				WHERE p.corpus_id = ? AND p.is_current = 1 AND p.is_deleted = 0)`, *q.CorpusID),
		))
	}

	switch {
	case q.DocumentID != nil:
		doc, err := s.Document(ctx, *q.DocumentID)
		if err != nil {
			return nil, err
		}
		var viaSet predicate.Pred
		if doc.StructuralSetID != nil {
			viaSet = predicate.And(
				predicate.Eq("structural_set_id", *doc.StructuralSetID),
				predicate.Eq("structural", true),
			)
		}
		preds = append(preds, predicate.Or(
			predicate.Eq("document_id", doc.ID),
			viaSet,
		))
	case q.CorpusID != nil:
		// Structural rows are corpus-free by nature; they accompany any
		// corpus that holds their content.
		preds = append(preds, predicate.Or(
			predicate.NotNull("structural_set_id"),
			predicate.Eq("corpus_id", *q.CorpusID),
		))
	}

	if q.Viewer != "" {
		preds = append(preds, predicate.Or(
			predicate.Eq("structural", true),
			predicate.Eq("creator", q.Viewer),
		))
	} else {
		preds = append(preds, predicate.Or(
			predicate.Eq("structural", true),
			predicate.Eq("is_public", true),
		))
	}

	if q.Label != "" {
		preds = append(preds, predicate.Eq("label", q.Label))
	}
	if withPage && q.Page != nil {
		preds = append(preds, predicate.Eq("page", *q.Page))
	}

	return predicate.And(preds...), nil
}

// loadMemberships fills SourceIDs and TargetIDs for a batch of relationships.
func (s *SQLiteStore) loadMemberships(ctx context.Context, rels []*Relationship) error {
	for _, r := range rels {
		var err error
		if r.SourceIDs, err = s.memberIDs(ctx, "relationship_sources", r.ID); err != nil {
			return err
		}
		if r.TargetIDs, err = s.memberIDs(ctx, "relationship_targets", r.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) memberIDs(ctx context.Context, table string, relID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT annotation_id FROM `+table+` WHERE relationship_id = ? ORDER BY annotation_id`, relID)
	if err != nil {
		return nil, fmt.Errorf("load %s of relationship %d: %w", table, relID, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("load %s of relationship %d: %w", table, relID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// checkOwnership enforces the XOR ownership rule and the structural
// implication before the schema CHECK gets a chance to reject with a less
// helpful message.
func checkOwnership(docID, setID *int64, structural bool) error {
	if (docID == nil) == (setID == nil) {
		return fmt.Errorf("%w: exactly one of document and structural set must own the row", ErrPreconditionFailed)
	}
	if setID != nil && !structural {
		return fmt.Errorf("%w: set-owned rows must be structural", ErrPreconditionFailed)
	}
	return nil
}
