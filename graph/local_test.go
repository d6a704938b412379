package graph

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai/mock"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage/badger"
)

func setupLocalBackend(t *testing.T, extractor *mock.MockEntityExtractor) (*LocalBackend, *badger.Stores) {
	t.Helper()

	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	backend, err := NewLocalBackend(stores.Graph, extractor)
	require.NoError(t, err)
	return backend, stores
}

// fixedExtraction returns an extractor func that ignores its input.
func fixedExtraction(entities []ai.ExtractedEntity, relations []ai.ExtractedRelation) func(context.Context, string) (*ai.Extraction, error) {
	return func(ctx context.Context, text string) (*ai.Extraction, error) {
		return &ai.Extraction{Entities: entities, Relations: relations}, nil
	}
}

func TestNewLocalBackend(t *testing.T) {
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	extractor := mock.NewMockEntityExtractor()

	t.Run("valid configuration", func(t *testing.T) {
		backend, err := NewLocalBackend(stores.Graph, extractor)
		require.NoError(t, err)
		assert.NotNil(t, backend)
	})

	t.Run("with custom logger", func(t *testing.T) {
		backend, err := NewLocalBackend(stores.Graph, extractor, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, backend)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		backend, err := NewLocalBackend(stores.Graph, extractor, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, backend)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewLocalBackend(nil, extractor)
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil extractor", func(t *testing.T) {
		_, err := NewLocalBackend(stores.Graph, nil)
		assert.Equal(t, ErrExtractorRequired, err)
	})
}

func TestAddEpisode(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = fixedExtraction(
		[]ai.ExtractedEntity{
			{Name: "alice", Type: "person", Salience: 9},
			{Name: "bob", Type: "person", Salience: 7},
		},
		[]ai.ExtractedRelation{{From: "alice", To: "bob", Verb: "met"}},
	)
	backend, stores := setupLocalBackend(t, extractor)

	ctx := context.Background()
	ref, err := backend.AddEpisode(ctx, &core.Episode{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Name:       "Museum day",
		Body:       "Alice met Bob at the museum.",
		Source:     core.SourceTypeNote,
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a/note:n1/v1", ref)

	ep, err := stores.Graph.GetEpisode(ctx, "tenant-a", "note:n1", 1)
	require.NoError(t, err)
	require.Len(t, ep.Entities, 2)

	aliceID := core.IDFromContent("(person,alice)")
	assert.Equal(t, aliceID, ep.Entities[0].EntityId)
	assert.Equal(t, 9, ep.Entities[0].Salience)

	alice, err := stores.Graph.GetEntity(ctx, "tenant-a", aliceID)
	require.NoError(t, err)
	assert.Equal(t, "alice", alice.Name)

	rels, err := stores.Graph.RelationsForEntity(ctx, "tenant-a", aliceID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "met", rels[0].Verb)
	assert.Equal(t, "note:n1", rels[0].DocumentId)
}

func TestAddEpisode_Replay(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = fixedExtraction(
		[]ai.ExtractedEntity{
			{Name: "alice", Type: "person", Salience: 9},
			{Name: "bob", Type: "person", Salience: 7},
		},
		[]ai.ExtractedRelation{{From: "alice", To: "bob", Verb: "met"}},
	)
	backend, stores := setupLocalBackend(t, extractor)

	ctx := context.Background()
	ep := &core.Episode{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Body:       "Alice met Bob at the museum.",
	}

	first, err := backend.AddEpisode(ctx, ep)
	require.NoError(t, err)
	second, err := backend.AddEpisode(ctx, ep)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	episodes, err := stores.Graph.EpisodesForDocument(ctx, "tenant-a", "note:n1")
	require.NoError(t, err)
	assert.Len(t, episodes, 1)

	rels, err := stores.Graph.RelationsForEntity(ctx, "tenant-a", core.IDFromContent("(person,alice)"))
	require.NoError(t, err)
	assert.Len(t, rels, 1)
}

func TestAddEpisode_DropsUnknownEndpointRelation(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = fixedExtraction(
		[]ai.ExtractedEntity{{Name: "alice", Type: "person", Salience: 9}},
		[]ai.ExtractedRelation{{From: "alice", To: "zeus", Verb: "worships"}},
	)
	backend, stores := setupLocalBackend(t, extractor)

	ctx := context.Background()
	_, err := backend.AddEpisode(ctx, &core.Episode{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Body:       "Alice alone.",
	})
	require.NoError(t, err)

	rels, err := stores.Graph.RelationsForEntity(ctx, "tenant-a", core.IDFromContent("(person,alice)"))
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestAddEpisode_ExtractorError(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = func(ctx context.Context, text string) (*ai.Extraction, error) {
		return nil, errors.New("model offline")
	}
	backend, stores := setupLocalBackend(t, extractor)

	ctx := context.Background()
	_, err := backend.AddEpisode(ctx, &core.Episode{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Body:       "Unreachable.",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")

	// Nothing is stored when extraction fails
	_, err = stores.Graph.GetEpisode(ctx, "tenant-a", "note:n1", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddEpisode_Invalid(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	backend, _ := setupLocalBackend(t, extractor)

	_, err := backend.AddEpisode(context.Background(), &core.Episode{
		DocumentId: "note:n1",
		Version:    1,
		Body:       "No tenant.",
	})
	assert.ErrorIs(t, err, core.ErrInvalidEpisode)
	assert.Equal(t, 0, extractor.CallCount())
}

func TestSearch(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = func(ctx context.Context, text string) (*ai.Extraction, error) {
		if strings.Contains(text, "Alice") {
			return &ai.Extraction{
				Entities: []ai.ExtractedEntity{
					{Name: "alice", Type: "person", Salience: 9},
					{Name: "bob", Type: "person", Salience: 7},
				},
				Relations: []ai.ExtractedRelation{{From: "alice", To: "bob", Verb: "met"}},
			}, nil
		}
		return &ai.Extraction{}, nil
	}
	backend, _ := setupLocalBackend(t, extractor)

	ctx := context.Background()
	episodes := []*core.Episode{
		{TenantId: "tenant-a", DocumentId: "note:n1", Version: 1, Name: "Museum day", Body: "Alice met Bob at the museum."},
		{TenantId: "tenant-a", DocumentId: "note:n2", Version: 1, Name: "Groceries", Body: "Grocery run for apples and oranges."},
	}
	for _, ep := range episodes {
		_, err := backend.AddEpisode(ctx, ep)
		require.NoError(t, err)
	}

	hits, err := backend.Search(ctx, "tenant-a", "alice", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// The episode matches on content and a mentioned entity, plus the
	// full-match boost, so it outranks the relation fact.
	assert.Equal(t, "note:n1", hits[0].DocumentId)
	assert.InDelta(t, 1.8, float64(hits[0].Score), 0.001)
	assert.Equal(t, []string{"alice"}, hits[0].Entities)

	assert.Equal(t, "alice met bob", hits[1].Fact)
	assert.Equal(t, float32(1.2), hits[1].Score)
	assert.Equal(t, []string{"alice", "bob"}, hits[1].Entities)
}

func TestSearch_EntityOnlyMatch(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = fixedExtraction(
		[]ai.ExtractedEntity{{Name: "budget report", Type: "document", Salience: 8}},
		nil,
	)
	backend, _ := setupLocalBackend(t, extractor)

	ctx := context.Background()
	_, err := backend.AddEpisode(ctx, &core.Episode{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Body:       "Quarterly planning session went long.",
	})
	require.NoError(t, err)

	hits, err := backend.Search(ctx, "tenant-a", "report", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, float32(1.2), hits[0].Score)
	assert.Equal(t, []string{"budget report"}, hits[0].Entities)
	assert.Equal(t, "Quarterly planning session went long.", hits[0].Fact)
}

func TestSearch_StopWordQuery(t *testing.T) {
	backend, _ := setupLocalBackend(t, mock.NewMockEntityExtractor())

	hits, err := backend.Search(context.Background(), "tenant-a", "the and of", 10)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearch_TenantIsolation(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = fixedExtraction(
		[]ai.ExtractedEntity{{Name: "alice", Type: "person", Salience: 9}},
		nil,
	)
	backend, _ := setupLocalBackend(t, extractor)

	ctx := context.Background()
	_, err := backend.AddEpisode(ctx, &core.Episode{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Body:       "Alice wrote this.",
	})
	require.NoError(t, err)

	hits, err := backend.Search(ctx, "tenant-b", "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_Limit(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = fixedExtraction(nil, nil)
	backend, _ := setupLocalBackend(t, extractor)

	ctx := context.Background()
	for i, doc := range []string{"note:n1", "note:n2", "note:n3"} {
		_, err := backend.AddEpisode(ctx, &core.Episode{
			TenantId:   "tenant-a",
			DocumentId: doc,
			Version:    1,
			Body:       "Alpha release draft " + strings.Repeat("x", i),
		})
		require.NoError(t, err)
	}

	hits, err := backend.Search(ctx, "tenant-a", "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestLocalDeleteDocument(t *testing.T) {
	extractor := mock.NewMockEntityExtractor()
	extractor.ExtractEntitiesFunc = fixedExtraction(
		[]ai.ExtractedEntity{
			{Name: "alice", Type: "person", Salience: 9},
			{Name: "bob", Type: "person", Salience: 7},
		},
		[]ai.ExtractedRelation{{From: "alice", To: "bob", Verb: "met"}},
	)
	backend, _ := setupLocalBackend(t, extractor)

	ctx := context.Background()
	_, err := backend.AddEpisode(ctx, &core.Episode{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Body:       "Alice met Bob at the museum.",
	})
	require.NoError(t, err)

	require.NoError(t, backend.DeleteDocument(ctx, "tenant-a", "note:n1"))

	hits, err := backend.Search(ctx, "tenant-a", "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEpisodeRef(t *testing.T) {
	assert.Equal(t, "tenant-a/note:n1/v3", EpisodeRef("tenant-a", "note:n1", 3))
}

func TestTokenizeAndFilter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and trims punctuation", "Hello, World!", []string{"hello", "world"}},
		{"removes stop words", "the cat and the hat", []string{"cat", "hat"}},
		{"stop words only", "the a an of", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenizeAndFilter(tt.text))
		})
	}
}

func TestSnippet(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "a short line", Snippet("a  short\nline", 50))
	})

	t.Run("long text is truncated", func(t *testing.T) {
		got := Snippet(strings.Repeat("wordy ", 100), 30)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Len(t, []rune(got), 33)
	})
}

func TestScoreContent(t *testing.T) {
	tests := []struct {
		name          string
		matched       int
		total         int
		entityMatches int
		want          float32
	}{
		{"no match at all", 0, 2, 0, 0},
		{"empty query", 0, 0, 0, 0},
		{"content only, partial", 1, 2, 0, 0.5},
		{"content only, verbatim", 2, 2, 0, 1.3},
		{"entities only", 0, 2, 1, 1.2},
		{"content and entities", 1, 2, 1, 0.75},
		{"verbatim and entities", 2, 2, 1, 1.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, float64(ScoreContent(tt.matched, tt.total, tt.entityMatches)), 0.001)
		})
	}
}
