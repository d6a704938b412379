package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// promoteDoc inserts a version row and makes it current.
func promoteDoc(t *testing.T, stores *Stores, tenant, doc string, version int, title string) {
	t.Helper()
	ctx := context.Background()

	err := stores.Versions.InsertVersion(ctx, &core.DocumentVersion{
		TenantId:    tenant,
		DocumentId:  doc,
		Version:     version,
		ContentHash: "hash-" + doc + "-" + string(rune('0'+version)),
		Title:       title,
	})
	require.NoError(t, err)
	require.NoError(t, stores.Versions.Promote(ctx, tenant, doc, version))
}

func TestReplaceChunks(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	first := []*core.Chunk{
		{Text: "chunk one", Vector: []float32{1, 0}},
		{Text: "chunk two", Vector: []float32{0, 1}},
		{Text: "chunk three", Vector: []float32{1, 1}},
	}
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 1, first))

	// A second write replaces the whole set, including the extra chunk
	second := []*core.Chunk{
		{Text: "replacement one", Vector: []float32{1, 0}},
		{Text: "replacement two", Vector: []float32{0, 1}},
	}
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 1, second))

	chunks, err := stores.Chunks.GetChunks(ctx, "tenant-a", "note:n1", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "replacement one", chunks[0].Text)
	assert.Equal(t, "replacement two", chunks[1].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, "tenant-a", chunks[0].TenantId)
}

func TestSearchCurrent_OnlyCurrentVersion(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	promoteDoc(t, stores, "tenant-a", "note:n1", 1, "Note one")
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 1, []*core.Chunk{
		{Text: "old content", Vector: []float32{1, 0, 0}},
	}))

	// A newer version takes over; its chunks become the searchable set
	promoteDoc(t, stores, "tenant-a", "note:n1", 2, "Note one v2")
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 2, []*core.Chunk{
		{Text: "new content", Vector: []float32{1, 0, 0}},
	}))

	results, err := stores.Chunks.SearchCurrent(ctx, "tenant-a", []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new content", results[0].Chunk.Text)
	assert.Equal(t, 2, results[0].Chunk.Version)
	assert.Equal(t, "Note one v2", results[0].Title)
}

func TestSearchCurrent_Filtering(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	promoteDoc(t, stores, "tenant-a", "note:n1", 1, "Note one")
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 1, []*core.Chunk{
		{Text: "high", Vector: []float32{1.0, 0.0, 0.0}},
		{Text: "medium", Vector: []float32{0.7, 0.3, 0.0}},
		{Text: "low", Vector: []float32{0.3, 0.7, 0.0}},
		{Text: "unembedded", Vector: nil},
	}))

	queryVector := []float32{1.0, 0.0, 0.0}

	t.Run("high threshold", func(t *testing.T) {
		results, err := stores.Chunks.SearchCurrent(ctx, "tenant-a", queryVector, 0.95, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "high", results[0].Chunk.Text)
	})

	t.Run("low threshold ranks by score", func(t *testing.T) {
		results, err := stores.Chunks.SearchCurrent(ctx, "tenant-a", queryVector, 0.2, 10)
		require.NoError(t, err)
		require.Len(t, results, 3)
		for i := 0; i < len(results)-1; i++ {
			assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
		}
		assert.Equal(t, "high", results[0].Chunk.Text)
	})

	t.Run("limit truncates", func(t *testing.T) {
		results, err := stores.Chunks.SearchCurrent(ctx, "tenant-a", queryVector, 0.2, 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		results, err := stores.Chunks.SearchCurrent(ctx, "tenant-b", queryVector, 0.2, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearchCurrent_DeletedDocument(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	promoteDoc(t, stores, "tenant-a", "note:n1", 1, "Note one")
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 1, []*core.Chunk{
		{Text: "content", Vector: []float32{1, 0, 0}},
	}))

	require.NoError(t, stores.Versions.SoftDeleteDocument(ctx, "tenant-a", "note:n1"))

	results, err := stores.Chunks.SearchCurrent(ctx, "tenant-a", []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCurrent_InvalidQuery(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	_, err = stores.Chunks.SearchCurrent(ctx, "", []float32{1}, 0.5, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = stores.Chunks.SearchCurrent(ctx, "tenant-a", nil, 0.5, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = stores.Chunks.SearchCurrent(ctx, "tenant-a", []float32{1}, 0.5, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestUpdateChunkVectors(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 1, []*core.Chunk{
		{Text: "content", Vector: []float32{1, 0}},
	}))

	update := &core.Chunk{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Index:      0,
		Vector:     []float32{0.5, 0.5},
	}
	require.NoError(t, stores.Chunks.UpdateChunkVectors(ctx, update))

	chunks, err := stores.Chunks.GetChunks(ctx, "tenant-a", "note:n1", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{0.5, 0.5}, chunks[0].Vector)
	// Text survives a vector rewrite
	assert.Equal(t, "content", chunks[0].Text)

	missing := &core.Chunk{TenantId: "tenant-a", DocumentId: "note:n1", Version: 1, Index: 9}
	err = stores.Chunks.UpdateChunkVectors(ctx, missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIterateCurrentChunks(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	promoteDoc(t, stores, "tenant-a", "note:n1", 1, "Note one")
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n1", 1, []*core.Chunk{
		{Text: "a", Vector: []float32{1, 0}},
		{Text: "b", Vector: []float32{0, 1}},
	}))

	// Chunks of a superseded version are not visited
	promoteDoc(t, stores, "tenant-a", "note:n2", 1, "Note two")
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n2", 1, []*core.Chunk{
		{Text: "c", Vector: []float32{1, 1}},
	}))
	promoteDoc(t, stores, "tenant-a", "note:n2", 2, "Note two v2")
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", "note:n2", 2, []*core.Chunk{
		{Text: "d", Vector: []float32{1, 1}},
	}))

	seen := map[string]bool{}
	err = stores.Chunks.IterateCurrentChunks(ctx, "tenant-a", func(chunk *core.Chunk) error {
		seen[chunk.Text] = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "d": true}, seen)

	// Callback errors stop iteration and propagate
	err = stores.Chunks.IterateCurrentChunks(ctx, "tenant-a", func(chunk *core.Chunk) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}
