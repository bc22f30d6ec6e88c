// structural.go implements the structural annotation set store.
//
// Structural sets hold parser-produced annotations that belong to content,
// not to any one document instance. They are keyed by content hash so every
// corpus copy of the same bytes shares one set. Documents reference sets
// with ON DELETE RESTRICT: a set cannot be removed while referenced, which
// is the database-enforced meaning of "never deleted while in use".

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetOrCreateStructuralSet returns the set for contentHash, creating it from
// defaults when absent. The second result reports whether a row was created.
func (s *SQLiteStore) GetOrCreateStructuralSet(ctx context.Context, contentHash string, defaults StructuralSetDefaults) (*StructuralSet, bool, error) {
	if contentHash == "" {
		return nil, false, fmt.Errorf("%w: structural set requires a content hash", ErrPreconditionFailed)
	}

	var set *StructuralSet
	var created bool
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		var err error
		set, created, err = getOrCreateSet(ctx, tx, s.now(), contentHash, defaults)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return set, created, nil
}

func getOrCreateSet(ctx context.Context, tx *sql.Tx, now int64, contentHash string, defaults StructuralSetDefaults) (*StructuralSet, bool, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+setCols+` FROM structural_sets WHERE content_hash = ?`, contentHash)
	existing, err := one(scanStructuralSet(row))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO structural_sets (content_hash, parser_name, parser_version,
			page_count, token_count, pawls_parse_file, txt_extract_file,
			creator, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contentHash, defaults.ParserName, defaults.ParserVersion,
		defaults.PageCount, defaults.TokenCount, defaults.PawlsParseFile,
		defaults.TxtExtractFile, defaults.Creator, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("create structural set for %s: %w", contentHash, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("create structural set for %s: %w", contentHash, err)
	}
	return &StructuralSet{
		ID:             id,
		ContentHash:    contentHash,
		ParserName:     defaults.ParserName,
		ParserVersion:  defaults.ParserVersion,
		PageCount:      defaults.PageCount,
		TokenCount:     defaults.TokenCount,
		PawlsParseFile: defaults.PawlsParseFile,
		TxtExtractFile: defaults.TxtExtractFile,
		Creator:        defaults.Creator,
		CreatedAt:      now,
		ModifiedAt:     now,
	}, true, nil
}

// StructuralSetByID retrieves a set by id.
func (s *SQLiteStore) StructuralSetByID(ctx context.Context, id int64) (*StructuralSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+setCols+` FROM structural_sets WHERE id = ?`, id)
	return one(scanStructuralSet(row))
}

// StructuralSetByHash retrieves a set by content hash.
func (s *SQLiteStore) StructuralSetByHash(ctx context.Context, contentHash string) (*StructuralSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+setCols+` FROM structural_sets WHERE content_hash = ?`, contentHash)
	return one(scanStructuralSet(row))
}

// AttachStructuralSet points a document at a set.
func (s *SQLiteStore) AttachStructuralSet(ctx context.Context, documentID, setID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET structural_set_id = ?, modified_at = ? WHERE id = ?`,
		setID, s.now(), documentID)
	if err != nil {
		return fmt.Errorf("attach structural set %d to document %d: %w", setID, documentID, mapSQLiteErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach structural set: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
	}
	return nil
}

// MigrateDocument moves a document's structural annotations and
// relationships into the shared set for its content hash, creating the set
// if needed, then links the document to the set. One transaction.
//
// Idempotent: a document already linked to a set is skipped. Documents
// without a content hash are skipped unless force is set, in which case a
// synthetic "doc-<id>" hash keys a private set.
//
// Returns whether a migration happened and how many annotation and
// relationship rows moved.
func (s *SQLiteStore) MigrateDocument(ctx context.Context, documentID int64, force bool) (migrated bool, annsMoved, relsMoved int64, err error) {
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		doc, err := documentInTx(ctx, tx, documentID)
		if err != nil {
			return err
		}
		if doc.StructuralSetID != nil {
			return nil // already migrated
		}

		contentHash := ""
		if doc.PDFFileHash != nil {
			contentHash = *doc.PDFFileHash
		}
		if contentHash == "" {
			if !force {
				return nil
			}
			contentHash = fmt.Sprintf("doc-%d", doc.ID)
		}

		set, _, err := getOrCreateSet(ctx, tx, s.now(), contentHash, StructuralSetDefaults{
			PageCount:      doc.PageCount,
			PawlsParseFile: doc.PawlsParseFile,
			TxtExtractFile: doc.TxtExtractFile,
			Creator:        doc.Creator,
		})
		if err != nil {
			return err
		}

		// Re-home structural rows: set ownership switches from the document
		// instance to the shared set, clearing the corpus scope (structural
		// rows are corpus-free by nature).
		res, err := tx.ExecContext(ctx, `
			UPDATE annotations
			SET structural_set_id = ?, document_id = NULL, corpus_id = NULL, modified_at = ?
			WHERE document_id = ? AND structural = 1`,
			set.ID, s.now(), doc.ID)
		if err != nil {
			return fmt.Errorf("migrate annotations of document %d: %w", doc.ID, err)
		}
		if annsMoved, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("migrate annotations of document %d: %w", doc.ID, err)
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE relationships
			SET structural_set_id = ?, document_id = NULL, corpus_id = NULL, modified_at = ?
			WHERE document_id = ? AND structural = 1`,
			set.ID, s.now(), doc.ID)
		if err != nil {
			return fmt.Errorf("migrate relationships of document %d: %w", doc.ID, err)
		}
		if relsMoved, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("migrate relationships of document %d: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET structural_set_id = ?, modified_at = ? WHERE id = ?`,
			set.ID, s.now(), doc.ID); err != nil {
			return fmt.Errorf("link document %d to structural set %d: %w", doc.ID, set.ID, err)
		}

		migrated = true
		return nil
	})
	return migrated, annsMoved, relsMoved, err
}

// CountSetAnnotations returns the number of annotations owned by a set.
func (s *SQLiteStore) CountSetAnnotations(ctx context.Context, setID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM annotations WHERE structural_set_id = ?`, setID).Scan(&n)
	return n, err
}

// CountSetRelationships returns the number of relationships owned by a set.
func (s *SQLiteStore) CountSetRelationships(ctx context.Context, setID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships WHERE structural_set_id = ?`, setID).Scan(&n)
	return n, err
}

// DeleteStructuralSet removes an orphaned set. Sets still referenced by any
// document are protected; the attempt fails with ErrProtected.
func (s *SQLiteStore) DeleteStructuralSet(ctx context.Context, setID int64) error {
	var n int64
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM structural_sets WHERE id = ?`, setID)
		if err != nil {
			return fmt.Errorf("delete structural set %d: %w", setID, err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete structural set %d: %w", setID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: structural set %d", ErrNotFound, setID)
	}
	return nil
}
