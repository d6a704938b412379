package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

const (
	// DefaultMaxHits bounds each result list when the caller passes no limit.
	DefaultMaxHits = 10

	// DefaultMinSimilarity is the cosine similarity floor for vector hits.
	DefaultMinSimilarity = 0.60
)

// Searcher answers combined queries over the vector and graph stores.
// Results come back as two labeled lists; a failing store degrades to an
// empty list and a warning instead of failing the query.
type Searcher struct {
	chunks        storage.ChunkRepository
	backend       graph.Backend
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithMinSimilarity sets the cosine similarity floor for vector hits.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(floor float32) Option {
	return func(s *Searcher) error {
		if floor < 0 {
			floor = 0
		}
		if floor > 1 {
			floor = 1
		}
		s.minSimilarity = floor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a searcher over the given stores.
func NewSearcher(
	chunks storage.ChunkRepository,
	backend graph.Backend,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if backend == nil {
		return nil, ErrGraphBackendRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:        chunks,
		backend:       backend,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Query runs the combined query for a tenant.
// Each list holds up to maxHits results ranked by score.
func (s *Searcher) Query(ctx context.Context, tenantID, query string, maxHits int) (*core.QueryResult, error) {
	return s.QueryWithMonitor(ctx, tenantID, query, maxHits, nil)
}

// QueryWithMonitor runs the combined query with monitoring. The monitor
// receives callbacks at each phase.
func (s *Searcher) QueryWithMonitor(ctx context.Context, tenantID, query string, maxHits int, monitor QueryMonitor) (*core.QueryResult, error) {
	if tenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	if maxHits < 1 {
		maxHits = DefaultMaxHits
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)
	result := &core.QueryResult{
		VectorHits: []core.VectorHit{},
		GraphHits:  []core.GraphHit{},
	}

	vectorErr := s.vectorSearch(ctx, tenantID, query, maxHits, result, monitor)
	graphErr := s.graphSearch(ctx, tenantID, query, maxHits, result, monitor)

	if vectorErr != nil && graphErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllStoresFailed, errors.Join(vectorErr, graphErr))
	}

	monitor.Finish(result)
	return result, nil
}

// vectorSearch fills the vector list, degrading to a warning on failure.
func (s *Searcher) vectorSearch(ctx context.Context, tenantID, query string, maxHits int, result *core.QueryResult, monitor QueryMonitor) error {
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err == nil {
		var hits []*core.VectorHit
		hits, err = s.chunks.SearchCurrent(ctx, tenantID, embedding, s.minSimilarity, maxHits)
		if err == nil {
			for _, hit := range hits {
				result.VectorHits = append(result.VectorHits, *hit)
			}
			monitor.AfterVectorSearch(result.VectorHits)
			return nil
		}
	}

	s.logger.Warn("vector search degraded", "tenantID", tenantID, "err", err)
	result.Warnings = append(result.Warnings, fmt.Sprintf("vector store unavailable: %v", err))
	monitor.StoreDegraded("vector", err)
	return err
}

// graphSearch fills the graph list, degrading to a warning on failure.
func (s *Searcher) graphSearch(ctx context.Context, tenantID, query string, maxHits int, result *core.QueryResult, monitor QueryMonitor) error {
	hits, err := s.backend.Search(ctx, tenantID, query, maxHits)
	if err != nil {
		s.logger.Warn("graph search degraded", "tenantID", tenantID, "err", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("graph store unavailable: %v", err))
		monitor.StoreDegraded("graph", err)
		return err
	}

	for _, hit := range hits {
		result.GraphHits = append(result.GraphHits, *hit)
	}
	monitor.AfterGraphSearch(result.GraphHits)
	return nil
}
