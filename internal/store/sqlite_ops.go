// sqlite_ops.go provides SQLite connection management and low-level operations.
//
// Separated to isolate SQLite-specific concerns (pragmas, connection
// handling, driver registration) from business logic. This is the only file
// that imports the SQLite driver, making it easier to swap implementations
// if needed.
//
// Design: WAL mode with busy timeout balances concurrency and durability.
// WAL allows concurrent readers during writes; writers serialise behind
// SQLite's single-writer transaction, which is what gives each
// (corpus, path) line its total order. foreign_keys=ON is load-bearing: the
// PROTECT/SET NULL/CASCADE behaviors of the model are enforced by the
// database, not by application code.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register sqlite driver
	_ "modernc.org/sqlite"
)

// SQLiteStore persists the dual-tree model in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// now returns the current time in Unix nanoseconds. Overridable in
	// tests that need deterministic time-travel boundaries.
	now func() int64
}

// Open opens the SQLite database file at `path` and returns a configured
// SQLiteStore. The caller should call Close on the returned store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// WAL mode: allows concurrent readers while writing. Trade-off: creates
	// -wal and -shm files alongside the database.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Busy timeout: how long to wait when another connection holds the
	// write lock. Most operations complete in milliseconds; 5 seconds keeps
	// concurrent importers from seeing "database is locked" while still
	// bounding stuck connections.
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Synchronous NORMAL: safe with WAL (the WAL provides the durability
	// guarantee); FULL would fsync every commit at ~10x the cost.
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting synchronous mode: %w", err)
	}

	// The schema's RESTRICT/SET NULL/CASCADE actions do nothing without this.
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		now: func() int64 { return time.Now().UnixNano() },
	}, nil
}

// Init creates tables and indexes if they don't exist. Safe to call multiple
// times; uses IF NOT EXISTS to avoid errors on existing databases.
func (s *SQLiteStore) Init() error {
	return execSchema(s.db)
}

// Close releases the database connection. Call before program exit to ensure
// all pending writes are flushed.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for tooling that needs raw queries
// (the invariant checker, migrations). Tooling should not modify core
// tables directly.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// SetClock overrides the store's time source. Test-only.
func (s *SQLiteStore) SetClock(now func() int64) {
	s.now = now
}

// Checkpoint flushes WAL contents into the main database file.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// querier abstracts *sql.DB and *sql.Tx so read helpers can run both inside
// and outside transactions.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows, enabling a single scan function
// to handle both single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}

// Tx executes fn within a database transaction, handling Begin/Commit/
// Rollback automatically. Rollback is deferred so panics and early returns
// leave no partial state; it is a no-op after a successful commit.
//
// Driver errors bubbling out of fn are classified by mapSQLiteErr, so
// constraint violations surface as the store's sentinel categories.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(tx); err != nil {
		return mapSQLiteErr(err)
	}
	if err := tx.Commit(); err != nil {
		return mapSQLiteErr(fmt.Errorf("commit: %w", err))
	}
	return nil
}
