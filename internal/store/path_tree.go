// path_tree.go implements the lifecycle side of the dual tree: the write
// surface of the engine.
//
// All four operations (Import, Move, Delete, Restore) run as a single
// transaction. Every lifecycle event appends a new document_paths row whose
// parent is the previous state of that (corpus, path) line; the only
// in-place mutation anywhere is flipping is_current off on that previous
// row. Version numbers move only when content changes: moves, deletes and
// restores carry the number forward unchanged.
//
// Concurrency: SQLite's single-writer transaction serialises conflicting
// writes on the same line; the partial unique index on active paths catches
// any two transactions racing to occupy one (corpus, path), failing the
// loser with ErrPathOccupied. Hashing and blob upload happen before the
// transaction begins (see ImportParams), keeping the write lock short.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vellumdb/vellum/internal/validate"
)

// Import records content at (corpus, path). The returned status tells the
// caller which of the five outcomes happened:
//
//   - unchanged: the active path already holds this exact content
//   - updated: the active path received a new content version
//   - linked: a fresh line adopted content already known in this corpus
//   - created_from_existing: a fresh line, content known only in another
//     corpus; a new isolated document records provenance to the original
//   - created: first sighting of this content anywhere
//
// Import into an occupied path always continues the existing line; it never
// creates a sibling line at the same (corpus, path).
func (s *SQLiteStore) Import(ctx context.Context, p ImportParams) (*ImportResult, error) {
	path, err := validate.Path(p.Path, p.MaxPath)
	if err != nil {
		return nil, err
	}
	p.Path = path
	if p.Creator, err = validate.User(p.Creator); err != nil {
		return nil, err
	}
	if p.Hash == "" {
		return nil, fmt.Errorf("%w: import requires a content hash", ErrPreconditionFailed)
	}

	var res *ImportResult
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		current, err := activePath(ctx, tx, p.CorpusID, p.Path)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if current != nil {
			res, err = s.importOntoLine(ctx, tx, current, p)
		} else {
			res, err = s.importFreshLine(ctx, tx, p)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// importOntoLine continues an existing (corpus, path) line with content p.
func (s *SQLiteStore) importOntoLine(ctx context.Context, tx *sql.Tx, current *DocumentPath, p ImportParams) (*ImportResult, error) {
	curDoc, err := documentInTx(ctx, tx, current.DocumentID)
	if err != nil {
		return nil, err
	}

	// Identical content: nothing to record.
	if curDoc.PDFFileHash != nil && *curDoc.PDFFileHash == p.Hash {
		return &ImportResult{Document: *curDoc, PathNode: *current, Status: StatusUnchanged}, nil
	}

	// Prior content of this corpus is re-adopted rather than duplicated,
	// even when it only survives on historical paths.
	doc, err := findInCorpusByHash(ctx, tx, p.CorpusID, p.Hash)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc, err = s.newVersion(ctx, tx, curDoc, p)
		if err != nil {
			return nil, err
		}
	}

	node := DocumentPath{
		DocumentID:    doc.ID,
		CorpusID:      p.CorpusID,
		FolderID:      p.FolderID,
		Path:          p.Path,
		VersionNumber: current.VersionNumber + 1,
		ParentID:      &current.ID,
		IsCurrent:     true,
		Creator:       p.Creator,
	}
	if node.FolderID == nil {
		node.FolderID = current.FolderID
	}
	if err := s.appendPathNode(ctx, tx, current.ID, &node); err != nil {
		return nil, err
	}
	return &ImportResult{Document: *doc, PathNode: node, Status: StatusUpdated}, nil
}

// importFreshLine starts a new (corpus, path) line for content p.
func (s *SQLiteStore) importFreshLine(ctx context.Context, tx *sql.Tx, p ImportParams) (*ImportResult, error) {
	status := StatusCreated
	version := 1

	doc, err := findInCorpusByHash(ctx, tx, p.CorpusID, p.Hash)
	if err != nil {
		return nil, err
	}
	switch {
	case doc != nil:
		// Content already lives in this corpus under another (possibly
		// historical) path; adopt it. The path version reflects how much
		// content history stands behind the document.
		status = StatusLinked
		version, err = contentDepth(ctx, tx, doc.ID)
		if err != nil {
			return nil, err
		}
	default:
		global, err := findGlobalByHash(ctx, tx, p.Hash)
		if err != nil {
			return nil, err
		}
		if global != nil {
			status = StatusCreatedFromExisting
		}
		doc, err = s.newIsolated(ctx, tx, p, global)
		if err != nil {
			return nil, err
		}
	}

	node := DocumentPath{
		DocumentID:    doc.ID,
		CorpusID:      p.CorpusID,
		FolderID:      p.FolderID,
		Path:          p.Path,
		VersionNumber: version,
		IsCurrent:     true,
		Creator:       p.Creator,
	}
	if err := s.insertPathNode(ctx, tx, &node); err != nil {
		return nil, err
	}
	return &ImportResult{Document: *doc, PathNode: node, Status: status}, nil
}

// Move relocates the active path at (corpus, oldPath) to newPath, keeping
// document and version number. The folder argument distinguishes keeping
// the current folder, moving to corpus root, and moving into a folder.
// Fails with ErrNotFound when no active path exists at oldPath and with
// ErrPathOccupied when newPath already has an active path.
func (s *SQLiteStore) Move(ctx context.Context, corpusID int64, oldPath, newPath, creator string, folder FolderChange, maxPath int) (*DocumentPath, error) {
	oldPath, err := validate.Path(oldPath, maxPath)
	if err != nil {
		return nil, err
	}
	newPath, err = validate.Path(newPath, maxPath)
	if err != nil {
		return nil, err
	}
	if creator, err = validate.User(creator); err != nil {
		return nil, err
	}

	var node DocumentPath
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		current, err := activePath(ctx, tx, corpusID, oldPath)
		if err != nil {
			return err
		}

		if oldPath != newPath {
			// Fail early with a clean error; the partial unique index
			// still catches the concurrent case at insert.
			occupied, err := activePath(ctx, tx, corpusID, newPath)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if occupied != nil {
				return fmt.Errorf("%w: %s", ErrPathOccupied, newPath)
			}
		}

		node = DocumentPath{
			DocumentID:    current.DocumentID,
			CorpusID:      corpusID,
			FolderID:      folder.Apply(current.FolderID),
			Path:          newPath,
			VersionNumber: current.VersionNumber,
			ParentID:      &current.ID,
			IsCurrent:     true,
			Creator:       creator,
		}
		return s.appendPathNode(ctx, tx, current.ID, &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// Delete soft-deletes the active path at (corpus, path). The line stays
// open: Restore appends a further node. Fails with ErrNotFound when no
// active path exists.
func (s *SQLiteStore) Delete(ctx context.Context, corpusID int64, path, creator string, maxPath int) (*DocumentPath, error) {
	path, err := validate.Path(path, maxPath)
	if err != nil {
		return nil, err
	}
	if creator, err = validate.User(creator); err != nil {
		return nil, err
	}

	var node DocumentPath
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		current, err := activePath(ctx, tx, corpusID, path)
		if err != nil {
			return err
		}

		node = DocumentPath{
			DocumentID:    current.DocumentID,
			CorpusID:      corpusID,
			FolderID:      current.FolderID,
			Path:          path,
			VersionNumber: current.VersionNumber,
			ParentID:      &current.ID,
			IsCurrent:     true,
			IsDeleted:     true,
			Creator:       creator,
		}
		return s.appendPathNode(ctx, tx, current.ID, &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// Restore revives the deleted path at (corpus, path). Fails with
// ErrNotFound when the line's terminal node is not a deletion.
func (s *SQLiteStore) Restore(ctx context.Context, corpusID int64, path, creator string, maxPath int) (*DocumentPath, error) {
	path, err := validate.Path(path, maxPath)
	if err != nil {
		return nil, err
	}
	if creator, err = validate.User(creator); err != nil {
		return nil, err
	}

	var node DocumentPath
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+pathCols+` FROM document_paths
			WHERE corpus_id = ? AND path = ? AND is_current = 1 AND is_deleted = 1`,
			corpusID, path)
		current, err := one(scanPath(row))
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: no deleted path at %s", ErrNotFound, path)
		}
		if err != nil {
			return err
		}

		node = DocumentPath{
			DocumentID:    current.DocumentID,
			CorpusID:      corpusID,
			FolderID:      current.FolderID,
			Path:          path,
			VersionNumber: current.VersionNumber,
			ParentID:      &current.ID,
			IsCurrent:     true,
			Creator:       creator,
		}
		return s.appendPathNode(ctx, tx, current.ID, &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// activePath locks in the current, non-deleted node of a (corpus, path)
// line, or ErrNotFound.
func activePath(ctx context.Context, q querier, corpusID int64, path string) (*DocumentPath, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+pathCols+` FROM document_paths
		WHERE corpus_id = ? AND path = ? AND is_current = 1 AND is_deleted = 0`,
		corpusID, path)
	p, err := one(scanPath(row))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: no active path at %s", ErrNotFound, path)
	}
	return p, err
}

// documentInTx reads a document inside a transaction.
func documentInTx(ctx context.Context, tx *sql.Tx, id int64) (*Document, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+docCols+` FROM documents WHERE id = ?`, id)
	return one(scanDocument(row))
}

// appendPathNode retires the previous node of a line and inserts its
// successor. The two statements share the transaction, so the line is never
// observed without a current node.
func (s *SQLiteStore) appendPathNode(ctx context.Context, tx *sql.Tx, prevID int64, node *DocumentPath) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE document_paths SET is_current = 0 WHERE id = ? AND is_current = 1`, prevID)
	if err != nil {
		return fmt.Errorf("retire path node %d: %w", prevID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retire path node %d: %w", prevID, err)
	}
	if n == 0 {
		// Another transaction advanced the line after our read.
		return fmt.Errorf("%w: path node %d is no longer current", ErrPreconditionFailed, prevID)
	}
	return s.insertPathNode(ctx, tx, node)
}

// insertPathNode inserts a lifecycle row and fills in its id and timestamp.
func (s *SQLiteStore) insertPathNode(ctx context.Context, tx *sql.Tx, node *DocumentPath) error {
	now := s.now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO document_paths (document_id, corpus_id, folder_id, path,
			version_number, parent_id, is_current, is_deleted, creator, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.DocumentID, node.CorpusID, node.FolderID, node.Path,
		node.VersionNumber, node.ParentID, node.IsCurrent, node.IsDeleted,
		node.Creator, now)
	if err != nil {
		return fmt.Errorf("insert path node for %s: %w", node.Path, mapSQLiteErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert path node for %s: %w", node.Path, err)
	}
	node.ID = id
	node.CreatedAt = now
	return nil
}
