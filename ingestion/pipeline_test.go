package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai/mock"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/chunking"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage/badger"
)

// stubGraphBackend records episodes instead of talking to a graph store.
type stubGraphBackend struct {
	episodes []*core.Episode
	addErr   error
}

func (s *stubGraphBackend) AddEpisode(ctx context.Context, ep *core.Episode) (string, error) {
	if s.addErr != nil {
		return "", s.addErr
	}
	s.episodes = append(s.episodes, ep)
	return graph.EpisodeRef(ep.TenantId, ep.DocumentId, ep.Version), nil
}

func (s *stubGraphBackend) Search(ctx context.Context, tenantID, query string, limit int) ([]*core.GraphHit, error) {
	return nil, nil
}

func (s *stubGraphBackend) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	return nil
}

func (s *stubGraphBackend) Close(ctx context.Context) error { return nil }

// flakyArchive fails writes on demand while passing everything else through.
type flakyArchive struct {
	storage.ArchiveRepository
	fail bool
}

func (f *flakyArchive) PutRecord(ctx context.Context, record *core.ArchiveRecord) error {
	if f.fail {
		return errors.New("archive unavailable")
	}
	return f.ArchiveRepository.PutRecord(ctx, record)
}

type pipelineFixture struct {
	pipeline *Pipeline
	stores   *badger.Stores
	embedder *mock.MockEmbedder
	backend  *stubGraphBackend
	archive  *flakyArchive
}

func setupPipeline(t *testing.T, opts ...Option) *pipelineFixture {
	t.Helper()

	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	chunker, err := chunking.NewParagraphChunker()
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 8

	backend := &stubGraphBackend{}
	archive := &flakyArchive{ArchiveRepository: stores.Archive}

	pipeline, err := NewPipeline(
		stores.Versions, stores.Chunks, archive, stores.Progress,
		chunker, embedder, backend, opts...)
	require.NoError(t, err)

	return &pipelineFixture{
		pipeline: pipeline,
		stores:   stores,
		embedder: embedder,
		backend:  backend,
		archive:  archive,
	}
}

func entryFor(id uint64, item *core.ContentItem) *core.QueueEntry {
	return &core.QueueEntry{Id: core.ID(id), Item: *item}
}

// repeatSentence builds prose of a known size, 53 runes per repetition.
func repeatSentence(n int) string {
	return strings.TrimSpace(strings.Repeat("The quarterly roadmap shifted to Thursday afternoon. ", n))
}

func TestNewPipeline_Validation(t *testing.T) {
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	chunker, err := chunking.NewParagraphChunker()
	require.NoError(t, err)
	embedder := mock.NewMockEmbedder()
	backend := &stubGraphBackend{}

	tests := []struct {
		name  string
		build func() (*Pipeline, error)
		want  error
	}{
		{
			name: "nil version repository",
			build: func() (*Pipeline, error) {
				return NewPipeline(nil, stores.Chunks, stores.Archive, stores.Progress, chunker, embedder, backend)
			},
			want: ErrVersionRepositoryRequired,
		},
		{
			name: "nil chunk repository",
			build: func() (*Pipeline, error) {
				return NewPipeline(stores.Versions, nil, stores.Archive, stores.Progress, chunker, embedder, backend)
			},
			want: ErrChunkRepositoryRequired,
		},
		{
			name: "nil archive repository",
			build: func() (*Pipeline, error) {
				return NewPipeline(stores.Versions, stores.Chunks, nil, stores.Progress, chunker, embedder, backend)
			},
			want: ErrArchiveRepositoryRequired,
		},
		{
			name: "nil progress repository",
			build: func() (*Pipeline, error) {
				return NewPipeline(stores.Versions, stores.Chunks, stores.Archive, nil, chunker, embedder, backend)
			},
			want: ErrProgressRepositoryRequired,
		},
		{
			name: "nil chunker",
			build: func() (*Pipeline, error) {
				return NewPipeline(stores.Versions, stores.Chunks, stores.Archive, stores.Progress, nil, embedder, backend)
			},
			want: ErrChunkerRequired,
		},
		{
			name: "nil embedder",
			build: func() (*Pipeline, error) {
				return NewPipeline(stores.Versions, stores.Chunks, stores.Archive, stores.Progress, chunker, nil, backend)
			},
			want: ErrEmbedderRequired,
		},
		{
			name: "nil graph backend",
			build: func() (*Pipeline, error) {
				return NewPipeline(stores.Versions, stores.Chunks, stores.Archive, stores.Progress, chunker, embedder, nil)
			},
			want: ErrGraphBackendRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline, err := tt.build()
			assert.Nil(t, pipeline)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPipeline_FirstVersion(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", repeatSentence(12))
	entry := entryFor(1, item)

	result, err := f.pipeline.Process(ctx, entry)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFirstVersion, result.Outcome)
	assert.Equal(t, 1, result.Version)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, graph.EpisodeRef(item.TenantId, item.DocumentID(), 1), result.EpisodeRef)

	// Version 1 is current with its chunk count recorded.
	current, err := f.stores.Versions.CurrentVersion(ctx, item.TenantId, item.DocumentID())
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
	assert.True(t, current.IsCurrent)
	assert.Equal(t, 1, current.ChunkCount)
	assert.False(t, current.PromotedAt.IsZero())

	// One chunk with a normalized vector of the provider's width.
	chunks, err := f.stores.Chunks.GetChunks(ctx, item.TenantId, item.DocumentID(), 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Len(t, chunks[0].Vector, 8)

	// One episode carrying the title and source.
	require.Len(t, f.backend.episodes, 1)
	assert.Equal(t, item.Title, f.backend.episodes[0].Name)
	assert.Equal(t, core.SourceTypeNote, f.backend.episodes[0].Source)

	// The raw text is archived with the chunk count attached.
	record, err := f.stores.Archive.GetRecord(ctx, item.TenantId, item.DocumentID(), 1)
	require.NoError(t, err)
	assert.Equal(t, item.Text, record.Text)
	assert.Equal(t, "1", record.Metadata["chunk_count"])

	// Nothing left to resume.
	_, err = f.stores.Progress.GetProgress(ctx, entry.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_SkipUnchanged(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", repeatSentence(12))

	first, err := f.pipeline.Process(ctx, entryFor(1, item))
	require.NoError(t, err)
	require.Equal(t, OutcomeFirstVersion, first.Outcome)
	callsAfterFirst := f.embedder.CallCount()

	again, err := f.pipeline.Process(ctx, entryFor(2, item))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkip, again.Outcome)
	assert.Equal(t, 1, again.Version)
	assert.Equal(t, 0, again.ChunkCount)

	// No store was touched the second time.
	assert.Equal(t, callsAfterFirst, f.embedder.CallCount())
	assert.Len(t, f.backend.episodes, 1)
}

func TestPipeline_NewVersionReplacesContent(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", repeatSentence(12))
	_, err := f.pipeline.Process(ctx, entryFor(1, item))
	require.NoError(t, err)

	// Two paragraphs too large to share a chunk.
	paragraph := repeatSentence(14)
	changed := noteItem("note-1", paragraph+"\n\n"+paragraph+" Budget items moved out.")

	result, err := f.pipeline.Process(ctx, entryFor(2, changed))
	require.NoError(t, err)

	assert.Equal(t, OutcomeNewVersion, result.Outcome)
	assert.Equal(t, 2, result.Version)
	assert.Equal(t, 2, result.ChunkCount)

	current, err := f.stores.Versions.CurrentVersion(ctx, item.TenantId, item.DocumentID())
	require.NoError(t, err)
	assert.Equal(t, 2, current.Version)

	chunks, err := f.stores.Chunks.GetChunks(ctx, item.TenantId, item.DocumentID(), 2)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	// Both versions keep an episode and an archive record.
	assert.Len(t, f.backend.episodes, 2)
	records, err := f.stores.Archive.ListRecords(ctx, item.TenantId, item.DocumentID())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPipeline_BatchedEmbedding(t *testing.T) {
	f := setupPipeline(t, WithBatchSize(2))
	ctx := context.Background()

	var batches []int
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batches = append(batches, len(texts))
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{1, 0, 0, 0, 0, 0, 0, 0}
		}
		return vectors, nil
	}

	// Five paragraphs, each too large to merge with a neighbor.
	paragraphs := make([]string, 5)
	for i := range paragraphs {
		paragraphs[i] = fmt.Sprintf("Segment %d. %s", i+1, repeatSentence(13))
	}
	item := noteItem("note-1", strings.Join(paragraphs, "\n\n"))

	result, err := f.pipeline.Process(ctx, entryFor(1, item))
	require.NoError(t, err)

	assert.Equal(t, 5, result.ChunkCount)
	assert.Equal(t, []int{2, 2, 1}, batches)
}

func TestPipeline_EmbedderFailure(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", repeatSentence(12))
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider unreachable")
	}

	entry := entryFor(1, item)
	_, err := f.pipeline.Process(ctx, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingProvider)
	assert.True(t, IsRetryable(err))

	// Nothing was promoted and no episode leaked.
	_, err = f.stores.Versions.CurrentVersion(ctx, item.TenantId, item.DocumentID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, f.backend.episodes)

	// Recovery on retry completes the same version.
	f.embedder.EmbedTextsFunc = nil
	result, err := f.pipeline.Process(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Version)
	assert.Equal(t, OutcomeFirstVersion, result.Outcome)
}

func TestPipeline_DimensionMismatch(t *testing.T) {
	f := setupPipeline(t, WithDimension(8))
	ctx := context.Background()

	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{1, 2, 3, 4}
		}
		return vectors, nil
	}

	_, err := f.pipeline.Process(ctx, entryFor(1, noteItem("note-1", repeatSentence(12))))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.True(t, IsRetryable(err))
}

func TestPipeline_GraphFailureResumesWithoutReembedding(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", repeatSentence(12))
	entry := entryFor(1, item)

	f.backend.addErr = errors.New("graph store down")
	_, err := f.pipeline.Process(ctx, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphBackend)
	assert.True(t, IsRetryable(err))

	// The vector stage completed and is on record.
	prog, err := f.stores.Progress.GetProgress(ctx, entry.Id)
	require.NoError(t, err)
	assert.True(t, prog.VectorDone)
	assert.False(t, prog.GraphDone)
	callsAfterFailure := f.embedder.CallCount()

	f.backend.addErr = nil
	result, err := f.pipeline.Process(ctx, entry)
	require.NoError(t, err)

	// The retry reused the stored chunks instead of embedding again.
	assert.Equal(t, callsAfterFailure, f.embedder.CallCount())
	assert.Equal(t, 1, result.Version)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Len(t, f.backend.episodes, 1)

	current, err := f.stores.Versions.CurrentVersion(ctx, item.TenantId, item.DocumentID())
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
}

func TestPipeline_ArchiveFailureKeepsSingleEpisode(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", repeatSentence(12))
	entry := entryFor(1, item)

	f.archive.fail = true
	_, err := f.pipeline.Process(ctx, entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchiveWrite)
	assert.True(t, IsRetryable(err))

	// The episode landed before the archive failed.
	require.Len(t, f.backend.episodes, 1)
	prog, err := f.stores.Progress.GetProgress(ctx, entry.Id)
	require.NoError(t, err)
	assert.True(t, prog.GraphDone)
	assert.NotEmpty(t, prog.EpisodeRef)

	f.archive.fail = false
	result, err := f.pipeline.Process(ctx, entry)
	require.NoError(t, err)

	// The retry finished the archive without a second episode.
	assert.Len(t, f.backend.episodes, 1)
	assert.Equal(t, prog.EpisodeRef, result.EpisodeRef)

	record, err := f.stores.Archive.GetRecord(ctx, item.TenantId, item.DocumentID(), 1)
	require.NoError(t, err)
	assert.Equal(t, item.Text, record.Text)
}

func TestPipeline_EmptyTextStoresNoChunks(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", "")
	result, err := f.pipeline.Process(ctx, entryFor(1, item))
	require.NoError(t, err)

	assert.Equal(t, OutcomeFirstVersion, result.Outcome)
	assert.Equal(t, 0, result.ChunkCount)

	current, err := f.stores.Versions.CurrentVersion(ctx, item.TenantId, item.DocumentID())
	require.NoError(t, err)
	assert.Equal(t, 0, current.ChunkCount)

	chunks, err := f.stores.Chunks.GetChunks(ctx, item.TenantId, item.DocumentID(), 1)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// The version still has an episode and an archive record.
	assert.Len(t, f.backend.episodes, 1)
	record, err := f.stores.Archive.GetRecord(ctx, item.TenantId, item.DocumentID(), 1)
	require.NoError(t, err)
	assert.Equal(t, "0", record.Metadata["chunk_count"])
}

func TestPipeline_RejectsInvalidItem(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	t.Run("nil entry", func(t *testing.T) {
		result, err := f.pipeline.Process(ctx, nil)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, core.ErrInvalidContentItem)
	})

	t.Run("missing source type", func(t *testing.T) {
		item := &core.ContentItem{TenantId: "tenant-a", SourceId: "note-1", Text: "hello"}
		result, err := f.pipeline.Process(ctx, entryFor(1, item))
		assert.Nil(t, result)
		assert.ErrorIs(t, err, core.ErrInvalidContentItem)
		assert.False(t, IsRetryable(err))
	})
}

func TestPipeline_HashFailureIsPermanent(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	item := noteItem("note-1", "broken \xff\xfe payload")
	result, err := f.pipeline.Process(ctx, entryFor(1, item))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrHashComputation)
	assert.False(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"hash computation", ErrHashComputation, false},
		{"wrapped hash computation", fmt.Errorf("%w: %w", ErrHashComputation, core.ErrInvalidEncoding), false},
		{"invalid item", core.ErrInvalidContentItem, false},
		{"version conflict", storage.ErrVersionConflict, false},
		{"embedding provider", ErrEmbeddingProvider, true},
		{"dimension mismatch", ErrDimensionMismatch, true},
		{"graph backend", ErrGraphBackend, true},
		{"archive write", ErrArchiveWrite, true},
		{"unknown", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
