// corpus.go implements corpus and folder management.
//
// Corpora and folders are freely mutable, unlike the append-only trees.
// Folder deletion relies on the schema's referential actions: child folders
// cascade, and document_paths.folder_id is set NULL. The path string is
// deliberately left untouched, so historical paths keep reading naturally
// even when their folder is gone.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vellumdb/vellum/internal/validate"
)

// CreateCorpus inserts a new named corpus. Titles are unique.
func (s *SQLiteStore) CreateCorpus(ctx context.Context, title, creator string, isPublic bool) (*Corpus, error) {
	title, err := validate.Name(title)
	if err != nil {
		return nil, err
	}
	creator, err = validate.User(creator)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO corpora (title, creator, is_public, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)`,
		title, creator, isPublic, now, now)
	if err != nil {
		if errors.Is(mapSQLiteErr(err), ErrIntegrity) {
			return nil, fmt.Errorf("%w: corpus %q", ErrAlreadyExists, title)
		}
		return nil, fmt.Errorf("create corpus %q: %w", title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create corpus %q: %w", title, err)
	}
	return &Corpus{ID: id, Title: title, Creator: creator, IsPublic: isPublic, CreatedAt: now, ModifiedAt: now}, nil
}

// Corpus retrieves a corpus by id.
func (s *SQLiteStore) Corpus(ctx context.Context, id int64) (*Corpus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, creator, is_public, created_at, modified_at
		FROM corpora WHERE id = ?`, id)
	return one(scanCorpus(row))
}

// CorpusByTitle retrieves a corpus by its unique title.
func (s *SQLiteStore) CorpusByTitle(ctx context.Context, title string) (*Corpus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, creator, is_public, created_at, modified_at
		FROM corpora WHERE title = ?`, title)
	return one(scanCorpus(row))
}

// ListCorpora returns all corpora ordered by title.
func (s *SQLiteStore) ListCorpora(ctx context.Context) ([]Corpus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, creator, is_public, created_at, modified_at
		FROM corpora ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}
	return collect(rows, scanCorpus)
}

// CreateFolder inserts a folder under parent (nil for corpus root level).
// Sibling names are unique per parent.
func (s *SQLiteStore) CreateFolder(ctx context.Context, corpusID int64, parentID *int64, name, creator string) (*Folder, error) {
	name, err := validate.Name(name)
	if err != nil {
		return nil, err
	}
	creator, err = validate.User(creator)
	if err != nil {
		return nil, err
	}

	var folder *Folder
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		if parentID != nil {
			// Parent must exist in the same corpus; folder trees never span corpora.
			var parentCorpus int64
			err := tx.QueryRowContext(ctx, `SELECT corpus_id FROM folders WHERE id = ?`, *parentID).Scan(&parentCorpus)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: parent folder %d", ErrNotFound, *parentID)
			}
			if err != nil {
				return fmt.Errorf("check parent folder: %w", err)
			}
			if parentCorpus != corpusID {
				return fmt.Errorf("%w: parent folder belongs to corpus %d", ErrPreconditionFailed, parentCorpus)
			}
		}

		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO folders (corpus_id, parent_id, name, creator, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			corpusID, parentID, name, creator, now, now)
		if err != nil {
			if errors.Is(mapSQLiteErr(err), ErrIntegrity) {
				return fmt.Errorf("%w: folder %q", ErrAlreadyExists, name)
			}
			return fmt.Errorf("create folder %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create folder %q: %w", name, err)
		}
		folder = &Folder{ID: id, CorpusID: corpusID, ParentID: parentID, Name: name, Creator: creator, CreatedAt: now, ModifiedAt: now}
		return nil
	})
	return folder, err
}

// Folder retrieves a folder by id.
func (s *SQLiteStore) Folder(ctx context.Context, id int64) (*Folder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, corpus_id, parent_id, name, creator, created_at, modified_at
		FROM folders WHERE id = ?`, id)
	return one(scanFolder(row))
}

// ListFolders returns the folders of a corpus, parents before children.
func (s *SQLiteStore) ListFolders(ctx context.Context, corpusID int64) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, corpus_id, parent_id, name, creator, created_at, modified_at
		FROM folders WHERE corpus_id = ? ORDER BY parent_id NULLS FIRST, name`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return collect(rows, scanFolder)
}

// RenameFolder changes a folder's name, keeping its position in the tree.
func (s *SQLiteStore) RenameFolder(ctx context.Context, id int64, name string) error {
	name, err := validate.Name(name)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE folders SET name = ?, modified_at = ? WHERE id = ?`,
		name, s.now(), id)
	if err != nil {
		if errors.Is(mapSQLiteErr(err), ErrIntegrity) {
			return fmt.Errorf("%w: folder %q", ErrAlreadyExists, name)
		}
		return fmt.Errorf("rename folder %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename folder %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: folder %d", ErrNotFound, id)
	}
	return nil
}

// DeleteFolder removes a folder. Child folders cascade; document paths in
// the deleted subtree get folder_id = NULL via the schema's SET NULL action
// and stay active with their path strings and version numbers unchanged.
func (s *SQLiteStore) DeleteFolder(ctx context.Context, id int64) error {
	var n int64
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete folder %d: %w", id, err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete folder %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: folder %d", ErrNotFound, id)
	}
	return nil
}
