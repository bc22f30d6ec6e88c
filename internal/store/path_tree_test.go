package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumdb/vellum/internal/hasher"
	"github.com/vellumdb/vellum/internal/store"
)

// setupStore creates a temporary SQLite store for testing.
// Returns the store and a cleanup function.
func setupStore(t *testing.T) (*store.SQLiteStore, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "vellum-store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)

	require.NoError(t, s.Init())

	// A strictly increasing clock so time-travel boundaries between
	// consecutive operations are unambiguous.
	var tick atomic.Int64
	s.SetClock(func() int64 { return tick.Add(1000) })

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func newCorpus(t *testing.T, s *store.SQLiteStore, title string) *store.Corpus {
	t.Helper()
	c, err := s.CreateCorpus(context.Background(), title, "alice", false)
	require.NoError(t, err)
	return c
}

// importParams builds ImportParams for string content, hashing it the way
// the engine does.
func importParams(corpusID int64, path, content string) store.ImportParams {
	hash := hasher.Sum([]byte(content))
	return store.ImportParams{
		CorpusID:   corpusID,
		Path:       path,
		Hash:       hash,
		BlobHandle: "blob-" + hash[:12],
		Creator:    "alice",
		MaxPath:    1024,
	}
}

func importDoc(t *testing.T, s *store.SQLiteStore, corpusID int64, path, content string) *store.ImportResult {
	t.Helper()
	res, err := s.Import(context.Background(), importParams(corpusID, path, content))
	require.NoError(t, err)
	return res
}

func actions(events []store.PathEvent) []store.PathAction {
	out := make([]store.PathAction, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

// --- Import ---

func TestImport_CreateUnchangedUpdate(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r1 := importDoc(t, s, c.ID, "a.pdf", "one")
	assert.Equal(t, store.StatusCreated, r1.Status)
	assert.Equal(t, 1, r1.PathNode.VersionNumber)
	assert.True(t, r1.Document.IsCurrent)
	assert.Nil(t, r1.Document.ParentID)

	r2 := importDoc(t, s, c.ID, "a.pdf", "one")
	assert.Equal(t, store.StatusUnchanged, r2.Status)
	assert.Equal(t, r1.Document.ID, r2.Document.ID)
	assert.Equal(t, r1.PathNode.ID, r2.PathNode.ID)

	r3 := importDoc(t, s, c.ID, "a.pdf", "two")
	assert.Equal(t, store.StatusUpdated, r3.Status)
	assert.Equal(t, 2, r3.PathNode.VersionNumber)
	require.NotNil(t, r3.Document.ParentID)
	assert.Equal(t, r1.Document.ID, *r3.Document.ParentID)
	assert.Equal(t, r1.Document.VersionTreeID, r3.Document.VersionTreeID)

	// The old version is retired, not removed.
	old, err := s.Document(ctx, r1.Document.ID)
	require.NoError(t, err)
	assert.False(t, old.IsCurrent)

	chain, err := s.ContentHistory(ctx, r3.Document.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, r1.Document.ID, chain[0].ID)
	assert.Equal(t, r3.Document.ID, chain[1].ID)

	events, err := s.PathHistory(ctx, r3.PathNode.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.PathAction{store.ActionCreated, store.ActionUpdated}, actions(events))
}

func TestImport_LinkedWithinCorpus(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "p.pdf", "v1")
	importDoc(t, s, c.ID, "p.pdf", "v2")
	r := importDoc(t, s, c.ID, "q.pdf", "v2")

	// Same corpus, same bytes: the existing document is adopted, and the
	// new path starts at the content's depth in its lineage.
	assert.Equal(t, store.StatusLinked, r.Status)
	assert.Equal(t, 2, r.PathNode.VersionNumber)

	docs := map[int64]bool{}
	fs, err := s.CurrentFilesystem(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	for _, p := range fs {
		docs[p.DocumentID] = true
	}
	assert.Len(t, docs, 1, "both paths share one document")
}

func TestImport_LinkedToHistoricalContent(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c := newCorpus(t, s, "research")

	r1 := importDoc(t, s, c.ID, "a.pdf", "old")
	importDoc(t, s, c.ID, "a.pdf", "new")

	// "old" now only exists in history, but re-importing it at another
	// path re-adopts the original document row.
	r := importDoc(t, s, c.ID, "b.pdf", "old")
	assert.Equal(t, store.StatusLinked, r.Status)
	assert.Equal(t, r1.Document.ID, r.Document.ID)
	assert.Equal(t, 1, r.PathNode.VersionNumber)
}

func TestImport_CrossCorpusProvenance(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c1 := newCorpus(t, s, "alpha")
	c2 := newCorpus(t, s, "beta")

	rA := importDoc(t, s, c1.ID, "s.pdf", "shared")
	rB := importDoc(t, s, c2.ID, "s.pdf", "shared")

	assert.Equal(t, store.StatusCreatedFromExisting, rB.Status)
	assert.NotEqual(t, rA.Document.ID, rB.Document.ID)
	assert.NotEqual(t, rA.Document.VersionTreeID, rB.Document.VersionTreeID)
	require.NotNil(t, rB.Document.SourceDocumentID)
	assert.Equal(t, rA.Document.ID, *rB.Document.SourceDocumentID)

	// Blobs are shared by handle, never copied.
	assert.Equal(t, rA.Document.PDFFile, rB.Document.PDFFile)
}

func TestImport_CorpusIsolation(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c1 := newCorpus(t, s, "alpha")
	c2 := newCorpus(t, s, "beta")

	rA := importDoc(t, s, c1.ID, "doc.pdf", "v1")
	importDoc(t, s, c2.ID, "doc.pdf", "v1")

	// Updating in one corpus must not disturb the other's lineage.
	importDoc(t, s, c1.ID, "doc.pdf", "v2")

	cur, err := s.CurrentOfTree(context.Background(), rA.Document.VersionTreeID)
	require.NoError(t, err)
	assert.NotEqual(t, rA.Document.ID, cur.ID)

	fsB, err := s.CurrentFilesystem(context.Background(), c2.ID)
	require.NoError(t, err)
	require.Len(t, fsB, 1)
	assert.Equal(t, 1, fsB[0].VersionNumber)
}

func TestImport_Validation(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c := newCorpus(t, s, "research")

	p := importParams(c.ID, "a.pdf", "x")
	p.Hash = ""
	_, err := s.Import(context.Background(), p)
	assert.ErrorIs(t, err, store.ErrPreconditionFailed)

	p = importParams(c.ID, "../escape.pdf", "x")
	_, err = s.Import(context.Background(), p)
	assert.Error(t, err)
}

// --- Move / Delete / Restore ---

func TestMove_KeepsVersionAndDocument(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r := importDoc(t, s, c.ID, "x.pdf", "content")
	node, err := s.Move(ctx, c.ID, "x.pdf", "y.pdf", "alice", store.FolderUnchanged(), 1024)
	require.NoError(t, err)

	assert.Equal(t, "y.pdf", node.Path)
	assert.Equal(t, r.Document.ID, node.DocumentID)
	assert.Equal(t, 1, node.VersionNumber)

	_, err = s.ActivePath(ctx, c.ID, "x.pdf")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMove_RoundTrip(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "p.pdf", "content")
	_, err := s.Move(ctx, c.ID, "p.pdf", "q.pdf", "alice", store.FolderUnchanged(), 1024)
	require.NoError(t, err)
	node, err := s.Move(ctx, c.ID, "q.pdf", "p.pdf", "alice", store.FolderUnchanged(), 1024)
	require.NoError(t, err)

	assert.Equal(t, "p.pdf", node.Path)
	assert.Equal(t, 1, node.VersionNumber)
}

func TestPathsForDocument(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r := importDoc(t, s, c.ID, "a.pdf", "content")
	_, err := s.Move(ctx, c.ID, "a.pdf", "b.pdf", "alice", store.FolderUnchanged(), 1024)
	require.NoError(t, err)

	nodes, err := s.PathsForDocument(ctx, r.Document.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 2, "both lifecycle nodes reference the document")
	assert.Equal(t, "a.pdf", nodes[0].Path)
	assert.Equal(t, "b.pdf", nodes[1].Path)
	assert.True(t, nodes[1].IsCurrent)
}

func TestMove_TargetOccupied(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "a.pdf", "one")
	importDoc(t, s, c.ID, "b.pdf", "two")

	_, err := s.Move(context.Background(), c.ID, "a.pdf", "b.pdf", "alice", store.FolderUnchanged(), 1024)
	assert.ErrorIs(t, err, store.ErrPathOccupied)
}

func TestMove_MissingSource(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c := newCorpus(t, s, "research")

	_, err := s.Move(context.Background(), c.ID, "nope.pdf", "b.pdf", "alice", store.FolderUnchanged(), 1024)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteRestore_RoundTrip(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "d.pdf", "content")

	del, err := s.Delete(ctx, c.ID, "d.pdf", "alice", 1024)
	require.NoError(t, err)
	assert.True(t, del.IsDeleted)
	assert.Equal(t, 1, del.VersionNumber)

	trash, err := s.DeletedPaths(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, trash, 1)

	res, err := s.Restore(ctx, c.ID, "d.pdf", "alice", 1024)
	require.NoError(t, err)
	assert.False(t, res.IsDeleted)
	assert.True(t, res.IsCurrent)
	assert.Equal(t, 1, res.VersionNumber)

	events, err := s.PathHistory(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.PathAction{
		store.ActionCreated, store.ActionDeleted, store.ActionRestored,
	}, actions(events))
}

func TestDelete_ThenReimportContinuesLine(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "d.pdf", "v1")
	_, err := s.Delete(ctx, c.ID, "d.pdf", "alice", 1024)
	require.NoError(t, err)

	// A deleted terminal node is not an active path; a new import starts
	// a fresh line but still re-adopts the corpus content.
	r := importDoc(t, s, c.ID, "d.pdf", "v1")
	assert.Equal(t, store.StatusLinked, r.Status)
}

func TestDelete_Twice(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "d.pdf", "content")
	_, err := s.Delete(ctx, c.ID, "d.pdf", "alice", 1024)
	require.NoError(t, err)
	_, err = s.Delete(ctx, c.ID, "d.pdf", "alice", 1024)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestore_RequiresDeletedTerminal(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "live.pdf", "content")
	_, err := s.Restore(context.Background(), c.ID, "live.pdf", "alice", 1024)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Full lifecycle on one line ---

func TestLifecycle_MoveDeleteRestore(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	importDoc(t, s, c.ID, "x.pdf", "content")
	_, err := s.Move(ctx, c.ID, "x.pdf", "y.pdf", "alice", store.FolderUnchanged(), 1024)
	require.NoError(t, err)
	_, err = s.Delete(ctx, c.ID, "y.pdf", "alice", 1024)
	require.NoError(t, err)
	terminal, err := s.Restore(ctx, c.ID, "y.pdf", "alice", 1024)
	require.NoError(t, err)

	events, err := s.PathHistory(ctx, terminal.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.PathAction{
		store.ActionCreated, store.ActionMoved, store.ActionDeleted, store.ActionRestored,
	}, actions(events))

	for _, e := range events {
		assert.Equal(t, 1, e.Node.VersionNumber)
	}
	// History is monotone in creation time.
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Node.CreatedAt, events[i-1].Node.CreatedAt)
	}
}

// --- Time travel ---

func TestFilesystemAt_AfterDelete(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r := importDoc(t, s, c.ID, "d.pdf", "content")
	t0 := r.PathNode.CreatedAt
	del, err := s.Delete(ctx, c.ID, "d.pdf", "alice", 1024)
	require.NoError(t, err)
	t1 := del.CreatedAt

	at0, err := s.FilesystemAt(ctx, c.ID, t0+1)
	require.NoError(t, err)
	require.Len(t, at0, 1)
	assert.Equal(t, "d.pdf", at0[0].Path)

	at1, err := s.FilesystemAt(ctx, c.ID, t1+1)
	require.NoError(t, err)
	assert.Empty(t, at1)

	now, err := s.CurrentFilesystem(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, now)
}

func TestFilesystemAt_SeesOldVersions(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r1 := importDoc(t, s, c.ID, "a.pdf", "v1")
	r2 := importDoc(t, s, c.ID, "a.pdf", "v2")

	at, err := s.FilesystemAt(ctx, c.ID, r1.PathNode.CreatedAt)
	require.NoError(t, err)
	require.Len(t, at, 1)
	assert.Equal(t, r1.Document.ID, at[0].DocumentID)

	at, err = s.FilesystemAt(ctx, c.ID, r2.PathNode.CreatedAt)
	require.NoError(t, err)
	require.Len(t, at, 1)
	assert.Equal(t, r2.Document.ID, at[0].DocumentID)
}

func TestFilesystemAt_MovedPath(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r := importDoc(t, s, c.ID, "x.pdf", "content")
	mv, err := s.Move(ctx, c.ID, "x.pdf", "y.pdf", "alice", store.FolderUnchanged(), 1024)
	require.NoError(t, err)

	// Before the move only x.pdf exists; after, only y.pdf. The retired
	// x.pdf node is not a deletion, but it is no longer the newest state
	// of its path at any time past the move.
	before, err := s.FilesystemAt(ctx, c.ID, r.PathNode.CreatedAt)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "x.pdf", before[0].Path)

	after, err := s.FilesystemAt(ctx, c.ID, mv.CreatedAt+1)
	require.NoError(t, err)
	require.Len(t, after, 2)
}

// --- Truly deleted ---

func TestTrulyDeleted(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c1 := newCorpus(t, s, "alpha")
	c2 := newCorpus(t, s, "beta")

	rA := importDoc(t, s, c1.ID, "s.pdf", "shared")
	rB := importDoc(t, s, c2.ID, "s.pdf", "shared")

	_, err := s.Delete(ctx, c1.ID, "s.pdf", "alice", 1024)
	require.NoError(t, err)

	gone, err := s.IsContentTrulyDeleted(ctx, rA.Document.ID, c1.ID)
	require.NoError(t, err)
	assert.True(t, gone)

	gone, err = s.IsContentTrulyDeleted(ctx, rB.Document.ID, c2.ID)
	require.NoError(t, err)
	assert.False(t, gone)
}

func TestTrulyDeleted_FalseWhileLinkedElsewhere(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r := importDoc(t, s, c.ID, "a.pdf", "content")
	importDoc(t, s, c.ID, "b.pdf", "content") // linked, same document

	_, err := s.Delete(ctx, c.ID, "a.pdf", "alice", 1024)
	require.NoError(t, err)

	gone, err := s.IsContentTrulyDeleted(ctx, r.Document.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, gone, "still placed at b.pdf")
}

// --- Folders ---

func TestFolders_DeleteLeavesPathsActive(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	f, err := s.CreateFolder(ctx, c.ID, nil, "reports", "alice")
	require.NoError(t, err)

	p := importParams(c.ID, "reports/q1.pdf", "content")
	p.FolderID = &f.ID
	r, err := s.Import(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, r.PathNode.FolderID)

	require.NoError(t, s.DeleteFolder(ctx, f.ID))

	node, err := s.ActivePath(ctx, c.ID, "reports/q1.pdf")
	require.NoError(t, err)
	assert.Nil(t, node.FolderID)
	assert.Equal(t, 1, node.VersionNumber)
}

func TestFolders_SiblingNamesUnique(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	_, err := s.CreateFolder(ctx, c.ID, nil, "reports", "alice")
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, c.ID, nil, "reports", "alice")
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

// --- Concurrency ---

func TestImport_ConcurrentSamePath(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	c := newCorpus(t, s, "research")

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := s.Import(context.Background(),
				importParams(c.ID, "hot.pdf", fmt.Sprintf("content-%d", i)))
			errs <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		err := <-errs
		// Losers of the retire race fail cleanly; nothing may corrupt the line.
		if err != nil {
			assert.True(t,
				errors.Is(err, store.ErrPreconditionFailed) || errors.Is(err, store.ErrPathOccupied),
				"unexpected error: %v", err)
		}
	}

	fs, err := s.CurrentFilesystem(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, fs, 1)
}
