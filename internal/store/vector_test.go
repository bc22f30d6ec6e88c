package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumdb/vellum/internal/store"
)

const testModel = "test/minilm"

// unitVec builds a 384-dim vector with weight at one position, so cosine
// ranking is predictable.
func unitVec(pos int) []float32 {
	v := make([]float32, 384)
	v[pos] = 1
	return v
}

func TestSearchByEmbedding_RanksByCosine(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")

	near := annotate(t, s, r.Document.ID, c.ID, "near", "alice", false)
	far := annotate(t, s, r.Document.ID, c.ID, "far", "alice", false)
	mixed := annotate(t, s, r.Document.ID, c.ID, "mixed", "alice", false)

	require.NoError(t, s.StoreEmbedding(ctx, near.ID, testModel, unitVec(0)))
	require.NoError(t, s.StoreEmbedding(ctx, far.ID, testModel, unitVec(1)))
	v := unitVec(0)
	v[1] = 1
	require.NoError(t, s.StoreEmbedding(ctx, mixed.ID, testModel, v))

	q := store.AnnotationQuery{DocumentID: &r.Document.ID, CorpusID: &c.ID, Viewer: "alice"}
	got, err := s.SearchByEmbedding(ctx, q, unitVec(0), testModel, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, near.ID, got[0].Annotation.ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, mixed.ID, got[1].Annotation.ID)
	assert.InDelta(t, 0.7071, got[1].Score, 1e-3)
}

func TestSearchByEmbedding_ModelIsolation(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")

	a := annotate(t, s, r.Document.ID, c.ID, "one", "alice", false)
	require.NoError(t, s.StoreEmbedding(ctx, a.ID, "other/model", unitVec(0)))

	q := store.AnnotationQuery{DocumentID: &r.Document.ID, Viewer: "alice"}
	got, err := s.SearchByEmbedding(ctx, q, unitVec(0), testModel, 5)
	require.NoError(t, err)
	assert.Empty(t, got, "vectors from other models never cross-match")
}

func TestSearch_TrashedDocumentsExcluded(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")
	a := annotate(t, s, r.Document.ID, c.ID, "note", "alice", false)
	require.NoError(t, s.StoreEmbedding(ctx, a.ID, testModel, unitVec(0)))

	_, err := s.Delete(ctx, c.ID, "a.pdf", "alice", 1024)
	require.NoError(t, err)

	// No corpus filter, yet the placement check still applies: annotations
	// of trashed documents never rank.
	q := store.AnnotationQuery{DocumentID: &r.Document.ID, Viewer: "alice"}
	got, err := s.SearchByEmbedding(ctx, q, unitVec(0), testModel, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	scans, err := s.ScanLimited(ctx, q, 5)
	require.NoError(t, err)
	assert.Empty(t, scans)

	// Plain annotation queries on the document still see the row.
	anns, err := s.Annotations(ctx, q)
	require.NoError(t, err)
	assert.Len(t, anns, 1)
}

func TestStoreEmbedding_Replaces(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")
	a := annotate(t, s, r.Document.ID, c.ID, "one", "alice", false)

	require.NoError(t, s.StoreEmbedding(ctx, a.ID, testModel, unitVec(0)))
	require.NoError(t, s.StoreEmbedding(ctx, a.ID, testModel, unitVec(5)))

	vec, err := s.Embedding(ctx, a.ID, testModel)
	require.NoError(t, err)
	assert.EqualValues(t, 1, vec[5])
	assert.EqualValues(t, 0, vec[0])
}

func TestScanLimited_UniformScores(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	c := newCorpus(t, s, "research")
	r := importDoc(t, s, c.ID, "a.pdf", "content")

	for _, text := range []string{"one", "two", "three"} {
		annotate(t, s, r.Document.ID, c.ID, text, "alice", false)
	}

	q := store.AnnotationQuery{DocumentID: &r.Document.ID, Viewer: "alice"}
	got, err := s.ScanLimited(ctx, q, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, sa := range got {
		assert.Equal(t, 1.0, sa.Score)
	}
}
