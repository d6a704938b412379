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


package brain

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai/openai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/chunking"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph/neo4j"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ingestion"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/queue"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/reembed"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/search"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage/badger"
)

// Brain wires the stores, the AI provider and the graph backend into one
// handle the CLI and embedding applications build components from.
type Brain struct {
	backend   *badger.Backend
	versions  storage.VersionRepository
	chunks    storage.ChunkRepository
	queue     storage.QueueRepository
	archive   storage.ArchiveRepository
	progress  storage.ProgressRepository
	graphRepo storage.GraphRepository
	provider  ai.AIProvider
	graph     graph.Backend
	aiConfig  *ai.Config
	chunkOpts []chunking.Option
	logger    *slog.Logger
}

// Option configures a Brain.
type Option func(*options)

type options struct {
	aiConfig  *ai.Config
	queueOpts []badger.QueueOption
	chunkOpts []chunking.Option
	neo4j     *neo4jSettings
}

type neo4jSettings struct {
	uri      string
	username string
	password string
}

// WithAIConfig sets the embedding/chat provider configuration.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithQueueOptions forwards options to the durable queue (retry budget,
// backoff shape).
func WithQueueOptions(opts ...badger.QueueOption) Option {
	return func(o *options) {
		o.queueOpts = append(o.queueOpts, opts...)
	}
}

// WithChunkingOptions forwards options to the chunker built for each
// pipeline (size bounds, detector timeout).
func WithChunkingOptions(opts ...chunking.Option) Option {
	return func(o *options) {
		o.chunkOpts = append(o.chunkOpts, opts...)
	}
}

// WithNeo4j stores graph data in a Neo4j server instead of the embedded
// store. The server must be reachable when New is called.
func WithNeo4j(uri, username, password string) Option {
	return func(o *options) {
		o.neo4j = &neo4jSettings{uri: uri, username: username, password: password}
	}
}

// New opens the store at filePath and assembles the Brain around it.
func New(filePath string, opts ...Option) (*Brain, error) {
	// Apply options
	options := &options{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// The queue repository owns an ID sequence and must be closed
	queueRepo, err := badger.NewQueueRepository(backend, options.queueOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	versionRepo := badger.NewVersionRepository(backend)
	chunkRepo := badger.NewChunkRepository(backend)
	archiveRepo := badger.NewArchiveRepository(backend)
	progressRepo := badger.NewProgressRepository(backend)
	graphRepo := badger.NewGraphRepository(backend)

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		queueRepo.Close()
		backend.Close()
		return nil, err
	}

	// Graph backend: embedded by default, Neo4j when configured
	var graphBackend graph.Backend
	if options.neo4j != nil {
		graphBackend, err = neo4j.NewBackend(options.neo4j.uri, options.neo4j.username,
			options.neo4j.password, provider.EntityExtractor())
	} else {
		graphBackend, err = graph.NewLocalBackend(graphRepo, provider.EntityExtractor())
	}
	if err != nil {
		provider.Close()
		queueRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Brain{
		backend:   backend,
		versions:  versionRepo,
		chunks:    chunkRepo,
		queue:     queueRepo,
		archive:   archiveRepo,
		progress:  progressRepo,
		graphRepo: graphRepo,
		provider:  provider,
		graph:     graphBackend,
		aiConfig:  options.aiConfig,
		chunkOpts: options.chunkOpts,
		logger:    slog.Default(),
	}, nil
}

// Close releases the provider, the graph backend and the stores.
func (b *Brain) Close() error {
	// Close AI provider first
	if err := b.provider.Close(); err != nil {
		b.logger.Error("error closing AI provider", "err", err)
	}

	if err := b.graph.Close(context.Background()); err != nil {
		b.logger.Error("error closing graph backend", "err", err)
	}

	// Close the queue repository (releases its ID sequence)
	if err := b.queue.Close(); err != nil {
		b.logger.Error("error closing queue repository", "err", err)
		return err
	}

	// Close backend
	if err := b.backend.Close(); err != nil {
		b.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Submit validates the item and enqueues it for ingestion. The call
// returns as soon as the entry is durable; processing happens when a
// worker claims it.
func (b *Brain) Submit(ctx context.Context, item *core.ContentItem) (*core.QueueEntry, error) {
	if item == nil {
		return nil, core.ErrInvalidContentItem
	}

	entry, err := b.queue.Enqueue(ctx, &core.QueueEntry{Item: *item})
	if err != nil {
		return nil, err
	}

	b.logger.Info("content enqueued",
		"tenant", item.TenantId,
		"document", item.DocumentID(),
		"entry", uint64(entry.Id),
		"priority", entry.Priority)
	return entry, nil
}

// Show returns the archived text and metadata of a document version.
// Version 0 selects the document's current version.
func (b *Brain) Show(ctx context.Context, tenantID, documentID string, version int) (*core.ArchiveRecord, error) {
	if version == 0 {
		current, err := b.versions.CurrentVersion(ctx, tenantID, documentID)
		if err != nil {
			return nil, err
		}
		version = current.Version
	}
	return b.archive.GetRecord(ctx, tenantID, documentID, version)
}

// Delete soft-deletes a document everywhere: version rows and archive
// records keep their data behind a deleted flag, graph episodes and the
// edges they asserted are removed. The document stops appearing in
// queries; a later submission of the same source starts a fresh version
// line.
func (b *Brain) Delete(ctx context.Context, tenantID, documentID string) error {
	if err := b.versions.SoftDeleteDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("deleting version rows: %w", err)
	}
	if err := b.archive.SoftDeleteDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("deleting archive records: %w", err)
	}
	if err := b.graph.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("deleting graph records: %w", err)
	}

	b.logger.Info("document deleted", "tenant", tenantID, "document", documentID)
	return nil
}

// NewPipeline assembles the ingestion chain over the Brain's stores.
// Chunking uses the model-driven boundary detector with the deterministic
// paragraph fallback; the embedding dimension comes from the AI config.
func (b *Brain) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	chunker, err := chunking.NewSemanticChunker(b.provider.BoundaryDetector(), b.chunkOpts...)
	if err != nil {
		return nil, err
	}

	pipelineOpts := append([]ingestion.Option{
		ingestion.WithDimension(b.aiConfig.EmbeddingDimension),
	}, opts...)

	return ingestion.NewPipeline(b.versions, b.chunks, b.archive, b.progress,
		chunker, b.provider.Embedder(), b.graph, pipelineOpts...)
}

// NewManager creates a queue manager running claimed entries through
// processor, typically a pipeline from NewPipeline.
func (b *Brain) NewManager(processor queue.Processor, opts ...queue.Option) (*queue.Manager, error) {
	return queue.NewManager(b.queue, processor, opts...)
}

// NewSearcher creates a combined query engine over the vector and graph
// stores.
func (b *Brain) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(b.chunks, b.graph, b.provider.Embedder(), opts...)
}

// NewReembedder creates a re-embedding run writing progress to the given
// writer.
func (b *Brain) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(b.chunks, b.provider.Embedder(), config, progress)
}

// VersionRepository exposes the document version store.
func (b *Brain) VersionRepository() storage.VersionRepository {
	return b.versions
}

// ChunkRepository exposes the chunk/vector store.
func (b *Brain) ChunkRepository() storage.ChunkRepository {
	return b.chunks
}

// QueueRepository exposes the durable work queue.
func (b *Brain) QueueRepository() storage.QueueRepository {
	return b.queue
}

// ArchiveRepository exposes the raw content archive.
func (b *Brain) ArchiveRepository() storage.ArchiveRepository {
	return b.archive
}

// GraphBackend exposes the episode/entity graph store.
func (b *Brain) GraphBackend() graph.Backend {
	return b.graph
}
