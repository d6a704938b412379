// Copyright 2026 SystemCCG
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/chunking"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// DefaultBatchSize is the number of chunk texts sent to the embedding
// provider in one request.
const DefaultBatchSize = 100

// Pipeline runs a content item through versioning, chunking, embedding,
// graph submission and archival, then promotes the version. Stage results
// are recorded per queue entry, so a retried entry resumes where the
// previous attempt stopped.
type Pipeline struct {
	versions  storage.VersionRepository
	chunks    storage.ChunkRepository
	archive   storage.ArchiveRepository
	progress  storage.ProgressRepository
	chunker   chunking.Chunker
	embedder  ai.Embedder
	backend   graph.Backend
	gate      *VersionManager
	batchSize int
	dimension int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets how many chunk texts are embedded per provider call.
// Default is DefaultBatchSize, with a minimum of 1.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithDimension sets the vector length required from the embedding
// provider. Zero accepts whatever length the provider returns first.
func WithDimension(dim int) Option {
	return func(p *Pipeline) error {
		if dim < 0 {
			dim = 0
		}
		p.dimension = dim
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given stores and
// providers.
func NewPipeline(
	versions storage.VersionRepository,
	chunks storage.ChunkRepository,
	archive storage.ArchiveRepository,
	progress storage.ProgressRepository,
	chunker chunking.Chunker,
	embedder ai.Embedder,
	backend graph.Backend,
	opts ...Option,
) (*Pipeline, error) {
	if versions == nil {
		return nil, ErrVersionRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if archive == nil {
		return nil, ErrArchiveRepositoryRequired
	}
	if progress == nil {
		return nil, ErrProgressRepositoryRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if backend == nil {
		return nil, ErrGraphBackendRequired
	}

	p := &Pipeline{
		versions:  versions,
		chunks:    chunks,
		archive:   archive,
		progress:  progress,
		chunker:   chunker,
		embedder:  embedder,
		backend:   backend,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	gate, err := NewVersionManager(versions, p.logger)
	if err != nil {
		return nil, err
	}
	p.gate = gate

	return p, nil
}

// Result reports what one Process call did.
type Result struct {
	Outcome    Outcome
	Version    int
	ChunkCount int
	EpisodeRef string
}

// Process runs the queue entry's item through the full chain: decide the
// version, then vector, graph and archive stages, then promote. Stages a
// previous attempt completed are skipped. The promotion at the end is the
// single step that makes the new version visible to queries.
func (p *Pipeline) Process(ctx context.Context, entry *core.QueueEntry) (*Result, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: entry is nil", core.ErrInvalidContentItem)
	}
	item := &entry.Item
	if err := core.ValidateContentItem(item); err != nil {
		return nil, err
	}

	logger := p.logger.With(
		"tenant", item.TenantId,
		"document", item.DocumentID(),
		"entry", uint64(entry.Id),
	)

	decision, err := p.gate.Decide(ctx, item)
	if err != nil {
		return nil, err
	}

	if decision.Outcome == OutcomeSkip {
		logger.Info("content unchanged, skipping", "version", decision.Version)
		p.clearProgress(ctx, entry.Id, logger)
		return &Result{Outcome: OutcomeSkip, Version: decision.Version}, nil
	}

	prog, err := p.loadProgress(ctx, entry.Id)
	if err != nil {
		return nil, err
	}

	run := &pipelineRun{
		pipeline: p,
		item:     item,
		version:  decision.Version,
		prog:     prog,
		logger:   logger,
	}

	// A resumed entry needs the chunk count the earlier attempt stored.
	if prog.VectorDone {
		row, err := p.versions.GetVersion(ctx, item.TenantId, item.DocumentID(), decision.Version)
		if err != nil {
			return nil, fmt.Errorf("reading version %d: %w", decision.Version, err)
		}
		run.chunkCount = row.ChunkCount
	}

	for _, st := range run.stages() {
		if st.done(prog) {
			logger.Debug("stage already complete", "stage", st.name)
			continue
		}
		if err := st.run(ctx); err != nil {
			return nil, err
		}
		prog.UpdatedAt = time.Now().UTC()
		if err := p.progress.SaveProgress(ctx, prog); err != nil {
			return nil, fmt.Errorf("recording %s stage: %w", st.name, err)
		}
	}

	if err := p.versions.Promote(ctx, item.TenantId, item.DocumentID(), decision.Version); err != nil {
		return nil, fmt.Errorf("promoting version %d: %w", decision.Version, err)
	}
	logger.Info("version promoted",
		"version", decision.Version,
		"outcome", decision.Outcome.String(),
		"chunks", run.chunkCount,
	)

	p.clearProgress(ctx, entry.Id, logger)

	return &Result{
		Outcome:    decision.Outcome,
		Version:    decision.Version,
		ChunkCount: run.chunkCount,
		EpisodeRef: prog.EpisodeRef,
	}, nil
}

// loadProgress fetches the entry's stage record, or starts a fresh one.
func (p *Pipeline) loadProgress(ctx context.Context, entryID core.ID) (*core.StageProgress, error) {
	prog, err := p.progress.GetProgress(ctx, entryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &core.StageProgress{EntryId: entryID}, nil
		}
		return nil, fmt.Errorf("reading stage progress: %w", err)
	}
	return prog, nil
}

// clearProgress drops the entry's stage record. Failures are logged and
// swallowed; a stale record only causes skipped stages on a later retry.
func (p *Pipeline) clearProgress(ctx context.Context, entryID core.ID, logger *slog.Logger) {
	if err := p.progress.DeleteProgress(ctx, entryID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("could not remove stage progress", "err", err)
	}
}
