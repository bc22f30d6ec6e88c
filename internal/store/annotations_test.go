package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumdb/vellum/internal/store"
)

// annotate inserts a user annotation on a document in a corpus.
func annotate(t *testing.T, s *store.SQLiteStore, docID, corpusID int64, text, creator string, public bool) store.Annotation {
	t.Helper()
	a := store.Annotation{
		DocumentID: &docID,
		CorpusID:   &corpusID,
		RawText:    text,
		Creator:    creator,
		IsPublic:   public,
	}
	require.NoError(t, s.CreateAnnotation(context.Background(), &a))
	return a
}

// structuralSet builds a set with n structural annotations and links doc.
func structuralSet(t *testing.T, s *store.SQLiteStore, doc *store.Document, n int) *store.StructuralSet {
	t.Helper()
	ctx := context.Background()
	set, _, err := s.GetOrCreateStructuralSet(ctx, *doc.PDFFileHash, store.StructuralSetDefaults{Creator: "parser"})
	require.NoError(t, err)
	require.NoError(t, s.AttachStructuralSet(ctx, doc.ID, set.ID))
	for i := 0; i < n; i++ {
		a := store.Annotation{
			StructuralSetID: &set.ID,
			Page:            i,
			RawText:         "structural",
			Structural:      true,
			Creator:         "parser",
		}
		require.NoError(t, s.CreateAnnotation(ctx, &a))
	}
	return set
}

func TestCreateAnnotation_OwnershipXOR(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")
	set, _, err := s.GetOrCreateStructuralSet(ctx, "some-hash", store.StructuralSetDefaults{Creator: "parser"})
	require.NoError(t, err)

	// Both owners set.
	err = s.CreateAnnotation(ctx, &store.Annotation{
		DocumentID: &r.Document.ID, StructuralSetID: &set.ID,
		Structural: true, Creator: "parser",
	})
	assert.ErrorIs(t, err, store.ErrPreconditionFailed)

	// Neither owner set.
	err = s.CreateAnnotation(ctx, &store.Annotation{Creator: "alice"})
	assert.ErrorIs(t, err, store.ErrPreconditionFailed)

	// Set-owned but not structural.
	err = s.CreateAnnotation(ctx, &store.Annotation{
		StructuralSetID: &set.ID, Creator: "parser",
	})
	assert.ErrorIs(t, err, store.ErrPreconditionFailed)
}

func TestAnnotations_CurrentVersionOnly(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r1 := importDoc(t, s, c.ID, "a.pdf", "v1")
	old := annotate(t, s, r1.Document.ID, c.ID, "on v1", "alice", false)
	structuralSet(t, s, &r1.Document, 2)

	r2 := importDoc(t, s, c.ID, "a.pdf", "v2")
	cur := annotate(t, s, r2.Document.ID, c.ID, "on v2", "alice", false)

	// Default: annotations of superseded versions drop out, structural
	// rows survive the version flip.
	got, err := s.Annotations(ctx, store.AnnotationQuery{
		DocumentID: &r2.Document.ID, CorpusID: &c.ID, Viewer: "alice",
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	ids := annIDs(got)
	assert.Contains(t, ids, cur.ID)
	assert.NotContains(t, ids, old.ID)

	// AllVersions restores the superseded view for the old document.
	got, err = s.Annotations(ctx, store.AnnotationQuery{
		DocumentID: &r1.Document.ID, CorpusID: &c.ID, Viewer: "alice", AllVersions: true,
	})
	require.NoError(t, err)
	assert.Contains(t, annIDs(got), old.ID)
}

func TestAnnotations_AllVersionsCorpusScoped(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r1 := importDoc(t, s, c.ID, "a.pdf", "v1")
	old := annotate(t, s, r1.Document.ID, c.ID, "on v1", "alice", false)
	r2 := importDoc(t, s, c.ID, "a.pdf", "v2")
	cur := annotate(t, s, r2.Document.ID, c.ID, "on v2", "alice", false)

	// A superseded version has no active node of its own; its annotations
	// stay reachable through the line's current placement.
	got, err := s.Annotations(ctx, store.AnnotationQuery{
		CorpusID: &c.ID, Viewer: "alice", AllVersions: true,
	})
	require.NoError(t, err)
	ids := annIDs(got)
	assert.Contains(t, ids, old.ID)
	assert.Contains(t, ids, cur.ID)

	// Trashing the line hides the whole history.
	_, err = s.Delete(ctx, c.ID, "a.pdf", "alice", 1024)
	require.NoError(t, err)
	got, err = s.Annotations(ctx, store.AnnotationQuery{
		CorpusID: &c.ID, Viewer: "alice", AllVersions: true,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnnotations_SharedStructuralAcrossCorpora(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c1 := newCorpus(t, s, "alpha")
	c2 := newCorpus(t, s, "beta")

	rA := importDoc(t, s, c1.ID, "s.pdf", "shared")
	structuralSet(t, s, &rA.Document, 2)
	rB := importDoc(t, s, c2.ID, "s.pdf", "shared")

	noteA := annotate(t, s, rA.Document.ID, c1.ID, "only in alpha", "alice", false)

	gotA, err := s.Annotations(ctx, store.AnnotationQuery{
		DocumentID: &rA.Document.ID, CorpusID: &c1.ID, Viewer: "alice",
	})
	require.NoError(t, err)
	assert.Len(t, gotA, 3)

	gotB, err := s.Annotations(ctx, store.AnnotationQuery{
		DocumentID: &rB.Document.ID, CorpusID: &c2.ID, Viewer: "alice",
	})
	require.NoError(t, err)
	require.Len(t, gotB, 2, "structural rows only; alpha's note stays in alpha")
	assert.NotContains(t, annIDs(gotB), noteA.ID)
	for _, a := range gotB {
		assert.True(t, a.Structural)
	}
}

func TestAnnotations_CorpusDeletionCheck(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r := importDoc(t, s, c.ID, "a.pdf", "content")
	note := annotate(t, s, r.Document.ID, c.ID, "note", "alice", false)

	_, err := s.Delete(ctx, c.ID, "a.pdf", "alice", 1024)
	require.NoError(t, err)

	got, err := s.Annotations(ctx, store.AnnotationQuery{
		CorpusID: &c.ID, Viewer: "alice",
	})
	require.NoError(t, err)
	assert.Empty(t, got, "annotations of trashed documents are hidden")

	got, err = s.Annotations(ctx, store.AnnotationQuery{
		CorpusID: &c.ID, Viewer: "alice", SkipCorpusCheck: true,
	})
	require.NoError(t, err)
	assert.Contains(t, annIDs(got), note.ID)
}

func TestAnnotations_Visibility(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")

	r := importDoc(t, s, c.ID, "a.pdf", "content")
	structuralSet(t, s, &r.Document, 1)
	mine := annotate(t, s, r.Document.ID, c.ID, "private note", "alice", false)
	shared := annotate(t, s, r.Document.ID, c.ID, "public note", "bob", true)
	hidden := annotate(t, s, r.Document.ID, c.ID, "bob's secret", "bob", false)

	// Named viewer: structural plus own rows.
	got, err := s.Annotations(ctx, store.AnnotationQuery{
		DocumentID: &r.Document.ID, CorpusID: &c.ID, Viewer: "alice",
	})
	require.NoError(t, err)
	ids := annIDs(got)
	assert.Contains(t, ids, mine.ID)
	assert.NotContains(t, ids, shared.ID)
	assert.NotContains(t, ids, hidden.ID)

	// Anonymous: structural plus public rows.
	got, err = s.Annotations(ctx, store.AnnotationQuery{
		DocumentID: &r.Document.ID, CorpusID: &c.ID,
	})
	require.NoError(t, err)
	ids = annIDs(got)
	assert.Contains(t, ids, shared.ID)
	assert.NotContains(t, ids, mine.ID)
	assert.NotContains(t, ids, hidden.ID)
}

func TestAnnotations_LabelAndPageFilters(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")

	a1 := store.Annotation{DocumentID: &r.Document.ID, CorpusID: &c.ID, Page: 1, Label: "finding", RawText: "x", Creator: "alice"}
	a2 := store.Annotation{DocumentID: &r.Document.ID, CorpusID: &c.ID, Page: 2, Label: "finding", RawText: "y", Creator: "alice"}
	a3 := store.Annotation{DocumentID: &r.Document.ID, CorpusID: &c.ID, Page: 1, Label: "todo", RawText: "z", Creator: "alice"}
	for _, a := range []*store.Annotation{&a1, &a2, &a3} {
		require.NoError(t, s.CreateAnnotation(ctx, a))
	}

	page := 1
	got, err := s.Annotations(ctx, store.AnnotationQuery{
		DocumentID: &r.Document.ID, Viewer: "alice", Label: "finding", Page: &page,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a1.ID, got[0].ID)
}

func TestRelationships_XORAndQueries(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")

	src := annotate(t, s, r.Document.ID, c.ID, "source", "alice", false)
	dst := annotate(t, s, r.Document.ID, c.ID, "target", "alice", false)

	rel := store.Relationship{
		DocumentID: &r.Document.ID,
		CorpusID:   &c.ID,
		Label:      "refers-to",
		Creator:    "alice",
		SourceIDs:  []int64{src.ID},
		TargetIDs:  []int64{dst.ID},
	}
	require.NoError(t, s.CreateRelationship(ctx, &rel))

	got, err := s.Relationships(ctx, store.AnnotationQuery{
		DocumentID: &r.Document.ID, CorpusID: &c.ID, Viewer: "alice",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []int64{src.ID}, got[0].SourceIDs)
	assert.Equal(t, []int64{dst.ID}, got[0].TargetIDs)

	// XOR holds for relationships too.
	err = s.CreateRelationship(ctx, &store.Relationship{Creator: "alice"})
	assert.ErrorIs(t, err, store.ErrPreconditionFailed)

	// Deleting a member annotation drops the membership row, not the
	// relationship.
	require.NoError(t, s.DeleteAnnotation(ctx, src.ID))
	again, err := s.Relationship(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, again.SourceIDs)
	assert.Equal(t, []int64{dst.ID}, again.TargetIDs)
}

func annIDs(anns []store.Annotation) []int64 {
	out := make([]int64, len(anns))
	for i, a := range anns {
		out[i] = a.ID
	}
	return out
}
