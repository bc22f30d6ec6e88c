// content_tree.go implements the content lineage side of the dual tree.
//
// Document rows form parent-pointer chains grouped by version_tree_id. The
// store exposes no external mutators here: only the path tree operations
// (path_tree.go) create document rows, always inside the same transaction
// as the lifecycle row they accompany.
//
// Design: lineage lookups walk parent pointers iteratively. Chains are
// unbounded in the schema but expected shallow, and iteration keeps the
// queries trivial compared to recursive CTEs.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Document retrieves a content node by id.
func (s *SQLiteStore) Document(ctx context.Context, id int64) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+docCols+` FROM documents WHERE id = ?`, id)
	return one(scanDocument(row))
}

// CurrentOfTree returns the current document of a version tree.
func (s *SQLiteStore) CurrentOfTree(ctx context.Context, versionTreeID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+docCols+` FROM documents
		WHERE version_tree_id = ? AND is_current = 1`, versionTreeID)
	return one(scanDocument(row))
}

// ContentHistory walks parent pointers from the given document and returns
// the lineage ordered oldest first, ending at the given document.
func (s *SQLiteStore) ContentHistory(ctx context.Context, documentID int64) ([]Document, error) {
	var chain []Document
	id := &documentID
	for id != nil {
		doc, err := s.Document(ctx, *id)
		if err != nil {
			if errors.Is(err, ErrNotFound) && len(chain) > 0 {
				return nil, fmt.Errorf("%w: broken parent chain at document %d", ErrIntegrity, *id)
			}
			return nil, err
		}
		chain = append(chain, *doc)
		id = doc.ParentID
	}

	// Walked newest-to-oldest; flip to oldest-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// findInCorpusByHash scans any document path in the corpus, current or
// historical, for a document carrying the hash. Returns (nil, nil) when the
// corpus has never seen this content. The historical scan is what lets a
// re-import of previously-deleted content re-adopt its old document row.
func findInCorpusByHash(ctx context.Context, q querier, corpusID int64, hash string) (*Document, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+docCols+` FROM documents
		WHERE pdf_file_hash = ?
		  AND id IN (SELECT document_id FROM document_paths WHERE corpus_id = ?)
		ORDER BY id LIMIT 1`, hash, corpusID)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by hash in corpus %d: %w", corpusID, err)
	}
	return &d, nil
}

// findGlobalByHash scans all corpora for a document carrying the hash. Used
// only to inherit provenance and shared parsing artifacts when content
// enters a new corpus for the first time. Returns (nil, nil) when unseen.
func findGlobalByHash(ctx context.Context, q querier, hash string) (*Document, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+docCols+` FROM documents
		WHERE pdf_file_hash = ?
		ORDER BY id LIMIT 1`, hash)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	return &d, nil
}

// newVersion appends a content version to old's tree: flips is_current off
// across the tree, then inserts the new row with parent = old, inheriting
// the structural set. Must run inside the caller's transaction.
func (s *SQLiteStore) newVersion(ctx context.Context, tx *sql.Tx, old *Document, p ImportParams) (*Document, error) {
	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET is_current = 0, modified_at = ?
		WHERE version_tree_id = ? AND is_current = 1`,
		s.now(), old.VersionTreeID); err != nil {
		return nil, fmt.Errorf("retire current version of tree %s: %w", old.VersionTreeID, err)
	}

	d := Document{
		Title:           orInherit(p.Title, old.Title),
		FileType:        orInherit(p.FileType, old.FileType),
		PDFFile:         p.BlobHandle,
		PDFFileHash:     &p.Hash,
		PageCount:       p.PageCount,
		VersionTreeID:   old.VersionTreeID,
		ParentID:        &old.ID,
		IsCurrent:       true,
		StructuralSetID: old.StructuralSetID,
		Creator:         p.Creator,
	}
	if err := insertDocument(ctx, tx, s.now(), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// newIsolated inserts a root document with a fresh version tree. source is
// the cross-corpus provenance document when the content is already known
// elsewhere; its blob handles and structural set are inherited.
func (s *SQLiteStore) newIsolated(ctx context.Context, tx *sql.Tx, p ImportParams, source *Document) (*Document, error) {
	d := Document{
		Title:         p.Title,
		FileType:      p.FileType,
		PDFFile:       p.BlobHandle,
		PDFFileHash:   &p.Hash,
		PageCount:     p.PageCount,
		VersionTreeID: uuid.NewString(),
		IsCurrent:     true,
		Creator:       p.Creator,
	}
	if source != nil {
		// Blobs are shared by handle, never copied.
		d.PDFFile = source.PDFFile
		d.TxtExtractFile = source.TxtExtractFile
		d.PawlsParseFile = source.PawlsParseFile
		d.MDSummaryFile = source.MDSummaryFile
		d.Icon = source.Icon
		d.SourceDocumentID = &source.ID
		d.StructuralSetID = source.StructuralSetID
		d.Title = orInherit(p.Title, source.Title)
		d.FileType = orInherit(p.FileType, source.FileType)
		if p.PageCount == 0 {
			d.PageCount = source.PageCount
		}
	}
	if err := insertDocument(ctx, tx, s.now(), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func insertDocument(ctx context.Context, tx *sql.Tx, now int64, d *Document) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (title, file_type, pdf_file, txt_extract_file,
			pawls_parse_file, md_summary_file, icon, pdf_file_hash, page_count,
			version_tree_id, parent_id, is_current, source_document_id,
			structural_set_id, creator, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Title, d.FileType, d.PDFFile, d.TxtExtractFile, d.PawlsParseFile,
		d.MDSummaryFile, d.Icon, d.PDFFileHash, d.PageCount, d.VersionTreeID,
		d.ParentID, d.IsCurrent, d.SourceDocumentID, d.StructuralSetID,
		d.Creator, now, now)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	d.ID = id
	d.CreatedAt = now
	d.ModifiedAt = now
	return nil
}

// contentDepth returns the length of the parent chain including the
// document itself, so a root document has depth 1. This is the version
// number a path adopts when it links to existing content.
func contentDepth(ctx context.Context, q querier, documentID int64) (int, error) {
	depth := 0
	id := &documentID
	for id != nil {
		var parent sql.NullInt64
		err := q.QueryRowContext(ctx, `SELECT parent_id FROM documents WHERE id = ?`, *id).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: document %d", ErrNotFound, *id)
		}
		if err != nil {
			return 0, fmt.Errorf("walk content chain: %w", err)
		}
		depth++
		if parent.Valid {
			id = &parent.Int64
		} else {
			id = nil
		}
	}
	return depth, nil
}

// orInherit keeps metadata from the prior version unless the import
// supplies its own.
func orInherit(v, inherited string) string {
	if v != "" {
		return v
	}
	return inherited
}
