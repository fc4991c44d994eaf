package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_QueryRanksBySimilarity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	passages := []Passage{
		{ID: "a", Text: "alpha", Page: 1},
		{ID: "b", Text: "beta", Page: 2},
		{ID: "c", Text: "gamma", Page: 3},
	}
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{0.9, 0.1},
	}
	require.NoError(t, store.Upsert(ctx, "file1", passages, vectors))

	results, err := store.Query(ctx, "file1", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryStore_UpsertReplacesByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "file1",
		[]Passage{{ID: "a", Text: "stale", Page: 1}, {ID: "b", Text: "beta", Page: 2}},
		[][]float32{{0, 1}, {0, 1}}))
	require.NoError(t, store.Upsert(ctx, "file1",
		[]Passage{{ID: "a", Text: "fresh", Page: 1}},
		[][]float32{{1, 0}}))

	results, err := store.Query(ctx, "file1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "fresh", results[0].Text)
}

func TestMemoryStore_UnknownNamespaceReturnsEmpty(t *testing.T) {
	store := NewMemoryStore()

	results, err := store.Query(context.Background(), "missing", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_DeleteNamespace(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "file1", []Passage{{ID: "a", Text: "alpha"}}, [][]float32{{1}}))
	require.NoError(t, store.DeleteNamespace(ctx, "file1"))

	results, err := store.Query(ctx, "file1", []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_UpsertLengthMismatch(t *testing.T) {
	store := NewMemoryStore()
	err := store.Upsert(context.Background(), "file1", []Passage{{ID: "a"}}, nil)
	assert.Error(t, err)
}
