// Package store persists the dual-tree document model in SQLite.
//
// Two parent-pointer trees are recorded per corpus: the content tree
// (Document rows grouped by version tree, tracking what bytes followed what
// bytes) and the path tree (DocumentPath rows per (corpus, path) line,
// tracking where a file lived, moved, was deleted and restored). Both trees
// are append-only; any past state of a corpus can be reconstructed.
//
// Structural annotations (parser-produced, content-intrinsic rows) are
// factored into content-hash-keyed structural sets shared by every document
// holding that content, so identical content imported into multiple corpora
// never duplicates structural data.
package store

import (
	"encoding/json"
	"time"
)

// ImportStatus describes the outcome of an import operation.
type ImportStatus string

const (
	// StatusCreated: first-seen content at a fresh path; new root document.
	StatusCreated ImportStatus = "created"
	// StatusUpdated: existing path received new content; new version row.
	StatusUpdated ImportStatus = "updated"
	// StatusUnchanged: content identical to the current version; no rows written.
	StatusUnchanged ImportStatus = "unchanged"
	// StatusLinked: content already known in this corpus; the existing
	// document was adopted for a new path line.
	StatusLinked ImportStatus = "linked"
	// StatusCreatedFromExisting: content known in another corpus; a new
	// isolated document was created with provenance to the original.
	StatusCreatedFromExisting ImportStatus = "created_from_existing"
)

// PathAction labels a lifecycle transition in a path history.
type PathAction string

const (
	ActionCreated  PathAction = "CREATED"
	ActionMoved    PathAction = "MOVED"
	ActionUpdated  PathAction = "UPDATED"
	ActionDeleted  PathAction = "DELETED"
	ActionRestored PathAction = "RESTORED"
	ActionUnknown  PathAction = "UNKNOWN"
)

// Corpus is a named document collection with its own folder tree and path
// space. The corpus itself is not versioned.
type Corpus struct {
	ID         int64
	Title      string
	Creator    string
	IsPublic   bool
	CreatedAt  int64 // Unix nanoseconds
	ModifiedAt int64
}

// Folder is a node in a corpus folder tree. Sibling names are unique per
// parent. Deleting a folder nulls folder references on paths; it never
// cascades to documents.
type Folder struct {
	ID         int64
	CorpusID   int64
	ParentID   *int64 // nil for corpus root level
	Name       string
	Creator    string
	CreatedAt  int64
	ModifiedAt int64
}

// Document is a content node: one version of one document's bytes and
// derived artifacts. Rows are grouped into version trees by VersionTreeID
// and chained oldest-to-newest through ParentID. Documents are never
// hard-deleted while any path references them.
type Document struct {
	ID             int64
	Title          string
	FileType       string
	PDFFile        string // blob handle, empty if absent
	TxtExtractFile string
	PawlsParseFile string
	MDSummaryFile  string
	Icon           string
	PDFFileHash    *string // sha256 hex, nil when no file content
	PageCount      int
	VersionTreeID  string // uuid shared by all versions of one lineage
	ParentID       *int64 // previous content version, nil for roots
	IsCurrent      bool   // at most one per version tree
	// SourceDocumentID records cross-corpus provenance: the original
	// document this one was copied from when identical content entered a
	// new corpus.
	SourceDocumentID *int64
	StructuralSetID  *int64
	Creator          string
	CreatedAt        int64
	ModifiedAt       int64
}

// DocumentPath is a lifecycle node: one state of one (corpus, path) line.
// Every lifecycle event appends a new row; the only in-place mutation is
// flipping is_current off on the immediately preceding node.
type DocumentPath struct {
	ID            int64
	DocumentID    int64
	CorpusID      int64
	FolderID      *int64
	Path          string
	VersionNumber int    // bumped only by content change
	ParentID      *int64 // previous state of this line, nil for creation events
	IsCurrent     bool
	IsDeleted     bool
	Creator       string
	CreatedAt     int64
}

// Active reports whether this node is the live, non-deleted terminal of its
// line.
func (p *DocumentPath) Active() bool {
	return p.IsCurrent && !p.IsDeleted
}

// StructuralSet is the shared container for content-intrinsic annotations,
// keyed by content hash. Referenced documents protect it from deletion.
type StructuralSet struct {
	ID             int64
	ContentHash    string
	ParserName     string
	ParserVersion  string
	PageCount      int
	TokenCount     int
	PawlsParseFile string
	TxtExtractFile string
	Creator        string
	CreatedAt      int64
	ModifiedAt     int64
}

// Annotation is a span of interest on a page. Exactly one of DocumentID and
// StructuralSetID is set (XOR ownership): document-owned annotations belong
// to one document instance, set-owned annotations are structural and shared
// by every document referencing the set.
type Annotation struct {
	ID              int64
	DocumentID      *int64
	StructuralSetID *int64
	CorpusID        *int64 // nil for structural rows, which are corpus-free
	Page            int
	RawText         string
	Label           string
	Structural      bool
	IsPublic        bool
	Creator         string
	CreatedAt       int64
	ModifiedAt      int64
}

// Relationship connects source annotations to target annotations under a
// label. It carries the same XOR ownership invariant as Annotation.
type Relationship struct {
	ID              int64
	DocumentID      *int64
	StructuralSetID *int64
	CorpusID        *int64
	Label           string
	Structural      bool
	IsPublic        bool
	Creator         string
	CreatedAt       int64
	ModifiedAt      int64
	SourceIDs       []int64
	TargetIDs       []int64
}

// PathEvent is one entry of a path history: a lifecycle node plus the action
// label derived from the transition off its parent.
type PathEvent struct {
	Node   DocumentPath
	Action PathAction
}

// ImportParams carries everything an import needs. Hashing and blob upload
// happen before the transaction begins, so the store receives the hash and
// the handle, never the bytes.
type ImportParams struct {
	CorpusID   int64
	Path       string
	Hash       string // sha256 hex of the content
	BlobHandle string // handle issued by the blob store
	Creator    string
	FolderID   *int64 // nil inherits the current node's folder (or root for new lines)
	Title      string
	FileType   string
	PageCount  int
	MaxPath    int
}

// ImportResult is the outcome of an import: the content node, the new (or
// unchanged) lifecycle node, and how the engine got there.
type ImportResult struct {
	Document Document
	PathNode DocumentPath
	Status   ImportStatus
}

// FolderChange distinguishes "keep the folder", "move to corpus root" and
// "move into folder F" on move operations, replacing sentinel arguments.
type FolderChange struct {
	kind     int // 0 unchanged, 1 root, 2 specific folder
	folderID int64
}

// FolderUnchanged keeps the source node's folder.
func FolderUnchanged() FolderChange { return FolderChange{kind: 0} }

// FolderRoot clears the folder, placing the path at corpus root level.
func FolderRoot() FolderChange { return FolderChange{kind: 1} }

// FolderTo places the path inside the given folder.
func FolderTo(id int64) FolderChange { return FolderChange{kind: 2, folderID: id} }

// Apply resolves the change against the current folder reference.
func (f FolderChange) Apply(current *int64) *int64 {
	switch f.kind {
	case 1:
		return nil
	case 2:
		id := f.folderID
		return &id
	default:
		return current
	}
}

// StructuralSetDefaults seeds a structural set on first creation for a
// content hash.
type StructuralSetDefaults struct {
	ParserName     string
	ParserVersion  string
	PageCount      int
	TokenCount     int
	PawlsParseFile string
	TxtExtractFile string
	Creator        string
}

// Stats provides aggregate database statistics for operational visibility.
type Stats struct {
	Corpora        int64 // corpus count
	Documents      int64 // content nodes across all version trees
	VersionTrees   int64 // distinct content lineages
	ActivePaths    int64 // current, non-deleted lifecycle nodes
	DeletedPaths   int64 // current, deleted lifecycle nodes (trash)
	PathEvents     int64 // total lifecycle rows ever appended
	StructuralSets int64
	Annotations    int64
	Relationships  int64
}

// DocJSON is the API-friendly representation of a Document with RFC3339
// timestamps.
type DocJSON struct {
	ID            int64  `json:"id"`
	Title         string `json:"title,omitempty"`
	FileType      string `json:"file_type,omitempty"`
	Hash          string `json:"hash,omitempty"`
	VersionTreeID string `json:"version_tree_id"`
	IsCurrent     bool   `json:"is_current"`
	SourceID      *int64 `json:"source_document_id,omitempty"`
	Creator       string `json:"creator"`
	CreatedAt     string `json:"created_at"`
}

// ToJSON converts a Document to its API representation.
func (d *Document) ToJSON() DocJSON {
	j := DocJSON{
		ID:            d.ID,
		Title:         d.Title,
		FileType:      d.FileType,
		VersionTreeID: d.VersionTreeID,
		IsCurrent:     d.IsCurrent,
		SourceID:      d.SourceDocumentID,
		Creator:       d.Creator,
		CreatedAt:     formatNanos(d.CreatedAt),
	}
	if d.PDFFileHash != nil {
		j.Hash = *d.PDFFileHash
	}
	return j
}

// PathJSON is the API-friendly representation of a DocumentPath.
type PathJSON struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	CorpusID   int64  `json:"corpus_id"`
	FolderID   *int64 `json:"folder_id,omitempty"`
	Path       string `json:"path"`
	Version    int    `json:"version"`
	Deleted    bool   `json:"deleted,omitempty"`
	Creator    string `json:"creator"`
	CreatedAt  string `json:"created_at"`
}

// ToJSON converts a DocumentPath to its API representation.
func (p *DocumentPath) ToJSON() PathJSON {
	return PathJSON{
		ID:         p.ID,
		DocumentID: p.DocumentID,
		CorpusID:   p.CorpusID,
		FolderID:   p.FolderID,
		Path:       p.Path,
		Version:    p.VersionNumber,
		Deleted:    p.IsDeleted,
		Creator:    p.Creator,
		CreatedAt:  formatNanos(p.CreatedAt),
	}
}

func formatNanos(ns int64) string {
	return time.Unix(0, ns).UTC().Format(time.RFC3339Nano)
}

// MarshalJSON encodes a value with indentation for human-readable CLI output.
// Use this instead of json.Marshal when the output will be displayed to users.
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
