// query.go implements the read side over the dual tree: current filesystem,
// trash, exact time-travel, path histories and the truly-deleted predicate.
//
// Reads never lock; they run on snapshot state. Permission filtering is not
// applied here: the engine layer gates results before they leave the
// process, and the store stays a faithful view of the database.

package store

import (
	"context"
	"fmt"
)

// CurrentFilesystem returns all active paths of a corpus ordered by path.
// This is the only non-historical view.
func (s *SQLiteStore) CurrentFilesystem(ctx context.Context, corpusID int64) ([]DocumentPath, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pathCols+` FROM document_paths
		WHERE corpus_id = ? AND is_current = 1 AND is_deleted = 0
		ORDER BY path`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("current filesystem of corpus %d: %w", corpusID, err)
	}
	return collect(rows, scanPath)
}

// FilesystemAt reconstructs the filesystem of a corpus as of time t (Unix
// nanoseconds): for each distinct path, the newest node at or before t,
// excluding nodes that were deletions. This is exact time-travel over the
// append-only rows.
func (s *SQLiteStore) FilesystemAt(ctx context.Context, corpusID int64, t int64) ([]DocumentPath, error) {
	// The correlated subquery picks the terminal node per path line as of t;
	// id breaks ties for rows created in the same instant.
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pathCols+` FROM document_paths dp
		WHERE dp.corpus_id = ?
		  AND dp.created_at <= ?
		  AND dp.is_deleted = 0
		  AND dp.id = (
			SELECT dp2.id FROM document_paths dp2
			WHERE dp2.corpus_id = dp.corpus_id AND dp2.path = dp.path AND dp2.created_at <= ?
			ORDER BY dp2.created_at DESC, dp2.id DESC
			LIMIT 1
		  )
		ORDER BY dp.path`, corpusID, t, t)
	if err != nil {
		return nil, fmt.Errorf("filesystem of corpus %d at %d: %w", corpusID, t, err)
	}
	return collect(rows, scanPath)
}

// DeletedPaths returns the trash of a corpus: lines whose terminal node is a
// deletion.
func (s *SQLiteStore) DeletedPaths(ctx context.Context, corpusID int64) ([]DocumentPath, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pathCols+` FROM document_paths
		WHERE corpus_id = ? AND is_current = 1 AND is_deleted = 1
		ORDER BY path`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("deleted paths of corpus %d: %w", corpusID, err)
	}
	return collect(rows, scanPath)
}

// PathNode retrieves a lifecycle node by id.
func (s *SQLiteStore) PathNode(ctx context.Context, id int64) (*DocumentPath, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pathCols+` FROM document_paths WHERE id = ?`, id)
	return one(scanPath(row))
}

// ActivePath returns the active node at (corpus, path), or ErrNotFound.
func (s *SQLiteStore) ActivePath(ctx context.Context, corpusID int64, path string) (*DocumentPath, error) {
	return activePath(ctx, s.db, corpusID, path)
}

// PathHistory walks parent pointers from the given node and returns the
// line's events ordered oldest first. Each event carries the action label
// derived from the transition off its parent: creation for roots, then
// restore/delete by the deletion flag flipping, move by the path changing,
// update by the document changing.
func (s *SQLiteStore) PathHistory(ctx context.Context, pathNodeID int64) ([]PathEvent, error) {
	var chain []DocumentPath
	id := &pathNodeID
	for id != nil {
		node, err := s.PathNode(ctx, *id)
		if err != nil {
			if len(chain) > 0 {
				return nil, fmt.Errorf("%w: broken parent chain at path node %d", ErrIntegrity, *id)
			}
			return nil, err
		}
		chain = append(chain, *node)
		id = node.ParentID
	}

	events := make([]PathEvent, len(chain))
	for i, node := range chain {
		// chain is newest-first; emit oldest-first.
		out := len(chain) - 1 - i
		events[out] = PathEvent{Node: node}
		if i == len(chain)-1 {
			events[out].Action = ActionCreated
			continue
		}
		events[out].Action = transition(&chain[i+1], &node)
	}
	return events, nil
}

// transition labels the lifecycle step from parent to node.
func transition(parent, node *DocumentPath) PathAction {
	switch {
	case parent.IsDeleted && !node.IsDeleted:
		return ActionRestored
	case !parent.IsDeleted && node.IsDeleted:
		return ActionDeleted
	case parent.Path != node.Path:
		return ActionMoved
	case parent.DocumentID != node.DocumentID:
		return ActionUpdated
	default:
		return ActionUnknown
	}
}

// IsContentTrulyDeleted reports whether a document has no active path in
// the given corpus. "Truly deleted" is a predicate over the path tree, not
// an action: the content and its history remain reconstructible.
func (s *SQLiteStore) IsContentTrulyDeleted(ctx context.Context, documentID, corpusID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM document_paths
		WHERE document_id = ? AND corpus_id = ? AND is_current = 1 AND is_deleted = 0`,
		documentID, corpusID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("truly-deleted check for document %d in corpus %d: %w", documentID, corpusID, err)
	}
	return n == 0, nil
}

// PathsForDocument returns every lifecycle node referencing a document
// within a corpus, oldest first. Used to audit where content has lived.
func (s *SQLiteStore) PathsForDocument(ctx context.Context, documentID, corpusID int64) ([]DocumentPath, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pathCols+` FROM document_paths
		WHERE document_id = ? AND corpus_id = ?
		ORDER BY created_at, id`, documentID, corpusID)
	if err != nil {
		return nil, fmt.Errorf("paths for document %d in corpus %d: %w", documentID, corpusID, err)
	}
	return collect(rows, scanPath)
}

// Stats returns aggregate database statistics for operational visibility.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	queries := []struct {
		dst   *int64
		query string
	}{
		{&st.Corpora, `SELECT COUNT(*) FROM corpora`},
		{&st.Documents, `SELECT COUNT(*) FROM documents`},
		{&st.VersionTrees, `SELECT COUNT(DISTINCT version_tree_id) FROM documents`},
		{&st.ActivePaths, `SELECT COUNT(*) FROM document_paths WHERE is_current = 1 AND is_deleted = 0`},
		{&st.DeletedPaths, `SELECT COUNT(*) FROM document_paths WHERE is_current = 1 AND is_deleted = 1`},
		{&st.PathEvents, `SELECT COUNT(*) FROM document_paths`},
		{&st.StructuralSets, `SELECT COUNT(*) FROM structural_sets`},
		{&st.Annotations, `SELECT COUNT(*) FROM annotations`},
		{&st.Relationships, `SELECT COUNT(*) FROM relationships`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}
	return &st, nil
}
