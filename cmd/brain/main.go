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


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	brain "github.com/systemccg/flourisha-00-ai-brain-sub006"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai/openai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/queue"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/reembed"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage/badger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
	tenantFlag := &cli.StringFlag{
		Name:     "tenant",
		Aliases:  []string{"t"},
		Usage:    "Tenant the operation is scoped to",
		Required: true,
	}
	aiFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name for boundary detection and entity extraction",
			Value: "qwen2.5:3b",
		},
		&cli.IntFlag{
			Name:  "embedding-dimension",
			Usage: "Vector length the embedding model produces",
			Value: 768,
		},
	}

	return &cli.App{
		Name:  "brain",
		Usage: "Personal knowledge base with vector search and an entity graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "worker",
				Usage:  "Run ingestion workers over the durable queue",
				Action: workerCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of entries processed in parallel",
						Value: 2,
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "How often to poll the queue for ready entries",
						Value: 5 * time.Second,
					},
					&cli.IntFlag{
						Name:  "min-salience",
						Usage: "Minimum salience (1-10) for extracted entities",
						Value: 6,
					},
					&cli.StringFlag{
						Name:  "neo4j-uri",
						Usage: "Neo4j bolt URI; empty selects the embedded graph store",
					},
					&cli.StringFlag{
						Name:  "neo4j-user",
						Usage: "Neo4j username",
						Value: "neo4j",
					},
					&cli.StringFlag{
						Name:  "neo4j-password",
						Usage: "Neo4j password",
					},
				}, aiFlags...),
			},
			{
				Name:   "ingest",
				Usage:  "Submit content for ingestion",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.StringFlag{
						Name:  "source-type",
						Usage: "Kind of source (note, youtube_video, webpage, email, chat)",
						Value: "note",
					},
					&cli.StringFlag{
						Name:     "source-id",
						Usage:    "Source-unique identifier; versions of the same source share it",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read content from this file instead of stdin",
					},
					&cli.StringFlag{
						Name:  "project",
						Usage: "Project the content belongs to",
					},
					&cli.IntFlag{
						Name:  "priority",
						Usage: "Priority 1-10, higher first (0 selects the default)",
					},
					&cli.StringSliceFlag{
						Name:  "meta",
						Usage: "Producer metadata as key=value (repeatable)",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Search the knowledge base",
				ArgsUsage: "<query terms>",
				Action:    queryCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum hits per store",
						Value:   5,
					},
				}, aiFlags...),
			},
			{
				Name:      "show",
				Usage:     "Print an archived document version",
				ArgsUsage: "<document>",
				Action:    showCommand,
				Flags: []cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.IntFlag{
						Name:  "version",
						Usage: "Version to show (0 selects the current version)",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and everything derived from it",
				ArgsUsage: "<document>",
				Action:    deleteCommand,
				Flags:     []cli.Flag{dbFlag, tenantFlag},
			},
			{
				Name:  "queue",
				Usage: "Inspect and manage the work queue",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List queue entries, newest first",
						Action: queueListCommand,
						Flags: []cli.Flag{
							dbFlag,
							&cli.StringFlag{
								Name:    "tenant",
								Aliases: []string{"t"},
								Usage:   "Limit to one tenant (empty lists all)",
							},
							&cli.StringFlag{
								Name:  "status",
								Usage: "Filter by status (queued, processing, completed, failed, cancelled)",
							},
							&cli.IntFlag{
								Name:    "limit",
								Aliases: []string{"n"},
								Usage:   "Maximum entries to list",
								Value:   50,
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Print one queue entry",
						ArgsUsage: "<id>",
						Action:    queueShowCommand,
						Flags:     []cli.Flag{dbFlag},
					},
					{
						Name:      "retry",
						Usage:     "Return a failed entry to the queue with a fresh retry budget",
						ArgsUsage: "<id>",
						Action:    queueRetryCommand,
						Flags:     []cli.Flag{dbFlag},
					},
					{
						Name:      "cancel",
						Usage:     "Withdraw an entry that is still queued",
						ArgsUsage: "<id>",
						Action:    queueCancelCommand,
						Flags:     []cli.Flag{dbFlag},
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate chunk embeddings for a tenant",
				Action: reembedCommand,
				Flags: []cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "embedding-dimension",
						Usage: "Vector length the embedding model produces",
						Value: 768,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

// openBrain opens the database with the AI configuration taken from the
// command's flags. Commands without AI flags fall back to the defaults;
// nothing contacts the model services until a pipeline or searcher runs.
func openBrain(c *cli.Context) (*brain.Brain, error) {
	var cfgOpts []ai.ConfigOption
	if host := c.String("ai-host"); host != "" {
		cfgOpts = append(cfgOpts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		cfgOpts = append(cfgOpts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("chat-model"); model != "" {
		cfgOpts = append(cfgOpts, ai.WithChatModel(model))
	}
	if dim := c.Int("embedding-dimension"); dim > 0 {
		cfgOpts = append(cfgOpts, ai.WithEmbeddingDimension(dim))
	}
	if min := c.Int("min-salience"); min > 0 {
		cfgOpts = append(cfgOpts, ai.WithMinSalience(min))
	}

	opts := []brain.Option{brain.WithAIConfig(ai.NewConfig(cfgOpts...))}
	if uri := c.String("neo4j-uri"); uri != "" {
		opts = append(opts, brain.WithNeo4j(uri, c.String("neo4j-user"), c.String("neo4j-password")))
	}

	return brain.New(c.String("db"), opts...)
}

func workerCommand(c *cli.Context) error {
	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	pipeline, err := br.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	manager, err := br.NewManager(pipeline,
		queue.WithWorkers(c.Int("workers")),
		queue.WithPollInterval(c.Duration("poll-interval")),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue manager: %w", err)
	}
	defer manager.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	meta := map[string]string{}
	for _, kv := range c.StringSlice("meta") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid metadata %q: expected key=value", kv)
		}
		meta[k] = v
	}

	var text []byte
	var err error
	if path := c.String("file"); path != "" && path != "-" {
		text, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		text, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	entry, err := br.Submit(ctx, &core.ContentItem{
		TenantId:   c.String("tenant"),
		ProjectId:  c.String("project"),
		SourceType: core.SourceType(c.String("source-type")),
		SourceId:   c.String("source-id"),
		Title:      c.String("title"),
		Text:       string(text),
		Metadata:   meta,
		Priority:   c.Int("priority"),
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}

	fmt.Printf("Enqueued entry %d for document %s\n", uint64(entry.Id), entry.Item.DocumentID())
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query terms are required")
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	searcher, err := br.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	result, err := searcher.Query(ctx, c.String("tenant"), query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	fmt.Printf("Found %d vector hits\n", len(result.VectorHits))
	for i, hit := range result.VectorHits {
		fmt.Printf("%d: '%s' [%0.3f] (%s v%d #%d)\n",
			i+1, firstLine(hit.Chunk.Text), hit.Score,
			hit.Chunk.DocumentId, hit.Chunk.Version, hit.Chunk.Index)
	}

	fmt.Printf("Found %d graph facts\n", len(result.GraphHits))
	for i, hit := range result.GraphHits {
		fmt.Printf("%d: '%s' [%0.3f] (%s v%d)\n",
			i+1, hit.Fact, hit.Score, hit.DocumentId, hit.Version)
	}
	return nil
}

func showCommand(c *cli.Context) error {
	ctx := context.Background()

	document := c.Args().First()
	if document == "" {
		return fmt.Errorf("document argument is required")
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	record, err := br.Show(ctx, c.String("tenant"), document, c.Int("version"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", document, err)
	}

	fmt.Printf("Document:  %s\n", record.DocumentId)
	fmt.Printf("Version:   %d\n", record.Version)
	if record.Title != "" {
		fmt.Printf("Title:     %s\n", record.Title)
	}
	fmt.Printf("Source:    %s\n", record.SourceType)
	fmt.Printf("Archived:  %s\n", record.ArchivedAt.Format(time.RFC3339))
	if record.IsDeleted {
		fmt.Printf("Deleted:   yes\n")
	}
	fmt.Println()
	fmt.Println(record.Text)
	return nil
}

func deleteCommand(c *cli.Context) error {
	ctx := context.Background()

	document := c.Args().First()
	if document == "" {
		return fmt.Errorf("document argument is required")
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	if err := br.Delete(ctx, c.String("tenant"), document); err != nil {
		return fmt.Errorf("failed to delete %s: %w", document, err)
	}

	fmt.Printf("Deleted document %s\n", document)
	return nil
}

func queueListCommand(c *cli.Context) error {
	ctx := context.Background()

	status, err := parseStatus(c.String("status"))
	if err != nil {
		return err
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	entries, err := br.QueueRepository().ListEntries(ctx, c.String("tenant"), status, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	fmt.Printf("%-8s %-12s %-9s %-8s %-32s %s\n",
		"ID", "STATUS", "PRIORITY", "RETRIES", "DOCUMENT", "UPDATED")
	for _, entry := range entries {
		fmt.Printf("%-8d %-12s %-9d %d/%-6d %-32s %s\n",
			uint64(entry.Id), entry.Status, entry.Priority,
			entry.RetryCount, entry.MaxRetries,
			entry.Item.DocumentID(), entry.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func queueShowCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseEntryID(c.Args().First())
	if err != nil {
		return err
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	entry, err := br.QueueRepository().GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to read entry %d: %w", uint64(id), err)
	}

	fmt.Printf("Entry:     %d\n", uint64(entry.Id))
	fmt.Printf("Status:    %s\n", entry.Status)
	fmt.Printf("Tenant:    %s\n", entry.Item.TenantId)
	fmt.Printf("Document:  %s\n", entry.Item.DocumentID())
	fmt.Printf("Priority:  %d\n", entry.Priority)
	fmt.Printf("Retries:   %d/%d\n", entry.RetryCount, entry.MaxRetries)
	if entry.LastError != "" {
		fmt.Printf("Error:     %s\n", entry.LastError)
	}
	if entry.ClaimedBy != "" {
		fmt.Printf("Claimed:   %s\n", entry.ClaimedBy)
	}
	fmt.Printf("Created:   %s\n", entry.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:   %s\n", entry.UpdatedAt.Format(time.RFC3339))
	if !entry.NextRetryAt.IsZero() {
		fmt.Printf("Next try:  %s\n", entry.NextRetryAt.Format(time.RFC3339))
	}
	if !entry.CompletedAt.IsZero() {
		fmt.Printf("Completed: %s\n", entry.CompletedAt.Format(time.RFC3339))
	}
	return nil
}

func queueRetryCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseEntryID(c.Args().First())
	if err != nil {
		return err
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	if err := br.QueueRepository().Reset(ctx, id); err != nil {
		return fmt.Errorf("failed to retry entry %d: %w", uint64(id), err)
	}

	fmt.Printf("Entry %d returned to the queue\n", uint64(id))
	return nil
}

func queueCancelCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseEntryID(c.Args().First())
	if err != nil {
		return err
	}

	br, err := openBrain(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer br.Close()

	if err := br.QueueRepository().Cancel(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel entry %d: %w", uint64(id), err)
	}

	fmt.Printf("Entry %d cancelled\n", uint64(id))
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewChunkRepository(backend)
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimension(c.Int("embedding-dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Tenant: %s\n", c.String("tenant"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx, c.String("tenant")); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func parseEntryID(arg string) (core.ID, error) {
	if arg == "" {
		return 0, fmt.Errorf("entry id argument is required")
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", arg)
	}
	return core.ID(id), nil
}

func parseStatus(s string) (core.QueueStatus, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "queued":
		return core.StatusQueued, nil
	case "processing":
		return core.StatusProcessing, nil
	case "completed":
		return core.StatusCompleted, nil
	case "failed":
		return core.StatusFailed, nil
	case "cancelled":
		return core.StatusCancelled, nil
	default:
		return 0, fmt.Errorf("invalid status %q: must be one of queued, processing, completed, failed, cancelled", s)
	}
}

// firstLine trims a chunk to something that fits a result row.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 100 {
		text = text[:100] + "..."
	}
	return text
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
