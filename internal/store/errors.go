// errors.go defines sentinel errors for the store layer.
//
// Separated to centralise error definitions. Callers check categories with
// errors.Is; detailed messages come from wrapping with fmt.Errorf at the
// operation site.
//
// Design: database-level invariant violations (XOR ownership, one current
// version per tree, one active path per location) are mapped to ErrIntegrity
// and surfaced, never caught silently. A valid operation must never produce
// ErrIntegrity.

package store

import (
	"errors"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"
)

var (
	// ErrNotFound indicates the requested corpus, document, path or id does
	// not exist, or is soft-deleted where an active row is required.
	ErrNotFound = errors.New("not found")

	// ErrPathOccupied indicates a move target conflicts with an existing
	// active path at the same (corpus, path).
	ErrPathOccupied = errors.New("path occupied")

	// ErrPreconditionFailed indicates the operation's state requirement does
	// not hold, e.g. restoring a path that is not deleted.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrIntegrity indicates a database-level invariant violation. Valid
	// operations never produce this; its presence is a bug or a lost race
	// that the schema caught.
	ErrIntegrity = errors.New("integrity violation")

	// ErrProtected indicates a delete was refused because other rows still
	// reference the target (e.g. a structural set referenced by documents).
	ErrProtected = errors.New("protected by existing references")

	// ErrAlreadyExists indicates a uniqueness conflict on creation, e.g. a
	// duplicate corpus title or sibling folder name.
	ErrAlreadyExists = errors.New("already exists")
)

// mapSQLiteErr classifies driver errors into the store's sentinel
// categories. Constraint violations on the active-path unique index become
// ErrPathOccupied (the loser of a concurrent move); FK restriction failures
// become ErrProtected; all other constraint failures are ErrIntegrity.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return err
	}
	// Primary result code lives in the low byte of the extended code.
	if serr.Code()&0xff != 19 { // SQLITE_CONSTRAINT
		return err
	}
	msg := serr.Error()
	switch {
	case strings.Contains(msg, "document_paths_active"):
		return fmt.Errorf("%w: %v", ErrPathOccupied, err)
	case strings.Contains(msg, "FOREIGN KEY"):
		return fmt.Errorf("%w: %v", ErrProtected, err)
	default:
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
}
