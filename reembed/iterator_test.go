package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage/badger"
)

func setupStores(t *testing.T) *badger.Stores {
	t.Helper()

	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	return stores
}

// seedDocument stores one promoted document version with the given chunk
// texts and returns the stored chunks, keys populated.
func seedDocument(t *testing.T, stores *badger.Stores, tenantID, sourceID string, texts ...string) []*core.Chunk {
	t.Helper()
	ctx := context.Background()

	docID := string(core.SourceTypeNote) + ":" + sourceID
	row := &core.DocumentVersion{
		TenantId:    tenantID,
		DocumentId:  docID,
		Version:     1,
		ContentHash: "hash-" + sourceID,
		Title:       "Note " + sourceID,
		SourceType:  core.SourceTypeNote,
	}
	require.NoError(t, stores.Versions.InsertVersion(ctx, row))

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{Text: text}
	}
	require.NoError(t, stores.Chunks.ReplaceChunks(ctx, tenantID, docID, 1, chunks))
	require.NoError(t, stores.Versions.Promote(ctx, tenantID, docID, 1))

	stored, err := stores.Chunks.GetChunks(ctx, tenantID, docID, 1)
	require.NoError(t, err)
	return stored
}

// seedSegments seeds a single document with n numbered chunk texts.
func seedSegments(t *testing.T, stores *badger.Stores, tenantID, sourceID string, n int) []*core.Chunk {
	t.Helper()

	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("Segment %d of the roadmap discussion.", i)
	}
	return seedDocument(t, stores, tenantID, sourceID, texts...)
}

func TestChunkIterator_Basic(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	seedDocument(t, stores, "tenant-a", "note-1", "first paragraph", "second paragraph", "third paragraph")

	iter := NewChunkIterator(stores.Chunks, 2) // Batch size of 2
	count := 0
	var texts []string

	err := iter.ForEach(ctx, "tenant-a", func(chunks []*core.Chunk) error {
		count += len(chunks)
		for _, c := range chunks {
			texts = append(texts, c.Text)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, count, "should iterate all 3 chunks")
	assert.Len(t, texts, 3, "should have 3 texts")
}

func TestChunkIterator_BatchSizes(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	seedSegments(t, stores, "tenant-a", "note-1", 10)

	tests := []struct {
		name          string
		batchSize     int
		expectedBatch int
	}{
		{"batch size 1", 1, 10},
		{"batch size 3", 3, 4}, // 3+3+3+1
		{"batch size 5", 5, 2}, // 5+5
		{"batch size 10", 10, 1},
		{"batch size 100", 100, 1}, // All in one batch
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iter := NewChunkIterator(stores.Chunks, tt.batchSize)
			batchCount := 0
			totalChunks := 0

			err := iter.ForEach(ctx, "tenant-a", func(chunks []*core.Chunk) error {
				batchCount++
				totalChunks += len(chunks)
				assert.LessOrEqual(t, len(chunks), tt.batchSize, "batch should not exceed batchSize")
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedBatch, batchCount, "batch count")
			assert.Equal(t, 10, totalChunks, "total chunks")
		})
	}
}

func TestChunkIterator_EmptyTenant(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	iter := NewChunkIterator(stores.Chunks, 10)
	called := false

	err := iter.ForEach(ctx, "tenant-a", func(chunks []*core.Chunk) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called, "callback should not be called for an empty tenant")
}

func TestChunkIterator_SkipsSupersededVersions(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	docID := string(core.SourceTypeNote) + ":note-1"
	for version := 1; version <= 2; version++ {
		row := &core.DocumentVersion{
			TenantId:    "tenant-a",
			DocumentId:  docID,
			Version:     version,
			ContentHash: fmt.Sprintf("hash-%d", version),
			SourceType:  core.SourceTypeNote,
		}
		require.NoError(t, stores.Versions.InsertVersion(ctx, row))
		require.NoError(t, stores.Chunks.ReplaceChunks(ctx, "tenant-a", docID, version, []*core.Chunk{
			{Text: fmt.Sprintf("revision %d", version)},
		}))
		require.NoError(t, stores.Versions.Promote(ctx, "tenant-a", docID, version))
	}

	iter := NewChunkIterator(stores.Chunks, 10)
	var texts []string

	err := iter.ForEach(ctx, "tenant-a", func(chunks []*core.Chunk) error {
		for _, c := range chunks {
			texts = append(texts, c.Text)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"revision 2"}, texts, "only the current version's chunks should be visited")
}

func TestChunkIterator_ScopedToTenant(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	seedDocument(t, stores, "tenant-a", "note-1", "tenant a content")
	seedDocument(t, stores, "tenant-b", "note-1", "tenant b content")

	iter := NewChunkIterator(stores.Chunks, 10)
	var texts []string

	err := iter.ForEach(ctx, "tenant-a", func(chunks []*core.Chunk) error {
		for _, c := range chunks {
			texts = append(texts, c.Text)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"tenant a content"}, texts)
}

func TestChunkIterator_ErrorHandling(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	seedDocument(t, stores, "tenant-a", "note-1", "first", "second")

	iter := NewChunkIterator(stores.Chunks, 1)
	called := 0

	expectedErr := assert.AnError
	err := iter.ForEach(ctx, "tenant-a", func(chunks []*core.Chunk) error {
		called++
		if called == 1 {
			return expectedErr
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return callback error")
	assert.Equal(t, 1, called, "should stop on first error")
}

func TestChunkIterator_ContextCancellation(t *testing.T) {
	stores := setupStores(t)
	ctx, cancel := context.WithCancel(context.Background())

	seedSegments(t, stores, "tenant-a", "note-1", 5)

	iter := NewChunkIterator(stores.Chunks, 1)
	called := 0

	err := iter.ForEach(ctx, "tenant-a", func(chunks []*core.Chunk) error {
		called++
		if called == 2 {
			cancel()
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, called, "should process until context canceled")
}

func TestChunkIterator_InvalidBatchSize(t *testing.T) {
	stores := setupStores(t)

	// Zero batch size should be handled gracefully
	iter := NewChunkIterator(stores.Chunks, 0)
	assert.Greater(t, iter.batchSize, 0, "should use default batch size for invalid input")

	// Negative batch size
	iter = NewChunkIterator(stores.Chunks, -10)
	assert.Greater(t, iter.batchSize, 0, "should use default batch size for negative input")
}
