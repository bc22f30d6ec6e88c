package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vellumdb/vellum/internal/store"
)

// Issue is one invariant violation found by Check.
type Issue struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// CheckReport holds the outcome of a database audit.
type CheckReport struct {
	Issues []Issue `json:"issues,omitempty"`
	Rows   int64   `json:"rows_scanned"`
}

// OK reports whether the audit found no violations.
func (r *CheckReport) OK() bool { return len(r.Issues) == 0 }

func (r *CheckReport) add(kind, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Detail: fmt.Sprintf(format, args...)})
}

// Check audits the database against the model's structural invariants. The
// schema enforces most of them through constraints; the audit exists to
// catch databases written by older code or touched outside the store.
func Check(ctx context.Context, st *store.SQLiteStore) (*CheckReport, error) {
	report := &CheckReport{}
	db := st.DB()

	checks := []func(context.Context, *sql.DB, *CheckReport) error{
		checkCurrentPerTree,
		checkActivePerPath,
		checkAnnotationOwnership,
		checkRelationshipOwnership,
		checkVersionSteps,
		checkHashConsistency,
	}
	for _, c := range checks {
		if err := c(ctx, db, report); err != nil {
			return nil, err
		}
	}

	if err := db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM documents)
		     + (SELECT COUNT(*) FROM document_paths)
		     + (SELECT COUNT(*) FROM annotations)
		     + (SELECT COUNT(*) FROM relationships)`).Scan(&report.Rows); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	return report, nil
}

// Every version tree has exactly one current document.
func checkCurrentPerTree(ctx context.Context, db *sql.DB, r *CheckReport) error {
	rows, err := db.QueryContext(ctx, `
		SELECT version_tree_id, SUM(is_current) FROM documents
		GROUP BY version_tree_id HAVING SUM(is_current) != 1`)
	if err != nil {
		return fmt.Errorf("check current per tree: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tree string
		var n int64
		if err := rows.Scan(&tree, &n); err != nil {
			return err
		}
		r.add("current_per_tree", "version tree %s has %d current documents, want 1", tree, n)
	}
	return rows.Err()
}

// At most one active (current, non-deleted) node per (corpus, path).
func checkActivePerPath(ctx context.Context, db *sql.DB, r *CheckReport) error {
	rows, err := db.QueryContext(ctx, `
		SELECT corpus_id, path, COUNT(*) FROM document_paths
		WHERE is_current = 1 AND is_deleted = 0
		GROUP BY corpus_id, path HAVING COUNT(*) > 1`)
	if err != nil {
		return fmt.Errorf("check active per path: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var corpus int64
		var path string
		var n int64
		if err := rows.Scan(&corpus, &path, &n); err != nil {
			return err
		}
		r.add("active_per_path", "corpus %d path %s has %d active nodes, want at most 1", corpus, path, n)
	}
	return rows.Err()
}

func checkAnnotationOwnership(ctx context.Context, db *sql.DB, r *CheckReport) error {
	return checkOwnershipTable(ctx, db, r, "annotations")
}

func checkRelationshipOwnership(ctx context.Context, db *sql.DB, r *CheckReport) error {
	return checkOwnershipTable(ctx, db, r, "relationships")
}

// Exactly one owner per row, and set-owned rows are structural.
func checkOwnershipTable(ctx context.Context, db *sql.DB, r *CheckReport, table string) error {
	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id IS NOT NULL, structural_set_id IS NOT NULL, structural
		FROM `+table+`
		WHERE (document_id IS NOT NULL) = (structural_set_id IS NOT NULL)
		   OR (structural_set_id IS NOT NULL AND structural = 0)`)
	if err != nil {
		return fmt.Errorf("check %s ownership: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var hasDoc, hasSet, structural bool
		if err := rows.Scan(&id, &hasDoc, &hasSet, &structural); err != nil {
			return err
		}
		switch {
		case hasDoc == hasSet:
			r.add("ownership_xor", "%s row %d: document and set ownership must differ (doc=%t set=%t)",
				table, id, hasDoc, hasSet)
		default:
			r.add("structural_flag", "%s row %d: set-owned but not structural", table, id)
		}
	}
	return rows.Err()
}

// A path node's version number never moves by more than one step off its
// parent, and never backwards.
func checkVersionSteps(ctx context.Context, db *sql.DB, r *CheckReport) error {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.version_number, p.version_number
		FROM document_paths c JOIN document_paths p ON c.parent_id = p.id
		WHERE c.version_number NOT IN (p.version_number, p.version_number + 1)`)
	if err != nil {
		return fmt.Errorf("check version steps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var child, parent int
		if err := rows.Scan(&id, &child, &parent); err != nil {
			return err
		}
		r.add("version_step", "path node %d: version %d follows parent version %d", id, child, parent)
	}
	return rows.Err()
}

// Structural sets key on content hash; a document linked to a set should
// carry the set's hash (synthetic doc-<id> keys excepted).
func checkHashConsistency(ctx context.Context, db *sql.DB, r *CheckReport) error {
	rows, err := db.QueryContext(ctx, `
		SELECT d.id, d.pdf_file_hash, s.content_hash
		FROM documents d JOIN structural_sets s ON d.structural_set_id = s.id
		WHERE d.pdf_file_hash IS NOT NULL
		  AND d.pdf_file_hash != s.content_hash
		  AND s.content_hash NOT LIKE 'doc-%'`)
	if err != nil {
		return fmt.Errorf("check hash consistency: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var docHash, setHash string
		if err := rows.Scan(&id, &docHash, &setHash); err != nil {
			return err
		}
		r.add("set_hash", "document %d hash %s disagrees with its structural set hash %s", id, docHash, setHash)
	}
	return rows.Err()
}
