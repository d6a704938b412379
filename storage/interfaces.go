package storage

import (
	"context"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// VersionRepository manages document version rows and the per-document
// current pointer. Version rows are immutable once written except for the
// IsCurrent, IsDeleted and ChunkCount fields.
type VersionRepository interface {
	Repository
	// InsertVersion adds a new version row. The row must not be current;
	// promotion is a separate step. Returns ErrVersionConflict if a row
	// already exists at (tenant, document, version) with a different hash,
	// and is a no-op if one exists with the same hash.
	InsertVersion(ctx context.Context, version *core.DocumentVersion) error

	// GetVersion retrieves a single version row.
	// Returns ErrNotFound if the row doesn't exist.
	GetVersion(ctx context.Context, tenantID, documentID string, version int) (*core.DocumentVersion, error)

	// CurrentVersion returns the version row the document's current pointer
	// designates. Returns ErrNotFound if the document has no current version.
	CurrentVersion(ctx context.Context, tenantID, documentID string) (*core.DocumentVersion, error)

	// LatestVersion returns the row with the highest version number,
	// current or not. Returns ErrNotFound if the document has no versions.
	LatestVersion(ctx context.Context, tenantID, documentID string) (*core.DocumentVersion, error)

	// ListVersions returns every version row of a document, oldest first.
	ListVersions(ctx context.Context, tenantID, documentID string) ([]*core.DocumentVersion, error)

	// Promote makes the given version current in a single transaction:
	// the previous current row (if any) loses its flag, the named row
	// gains it, and the document's current pointer moves. Nothing is
	// visible to readers until the transaction commits.
	Promote(ctx context.Context, tenantID, documentID string, version int) error

	// SetChunkCount records how many chunks were stored for a version.
	SetChunkCount(ctx context.Context, tenantID, documentID string, version, count int) error

	// SoftDeleteDocument marks every version row of the document deleted
	// and clears the current pointer. Rows are never physically removed.
	SoftDeleteDocument(ctx context.Context, tenantID, documentID string) error

	// ListDocuments returns the current version row of every live document
	// belonging to the tenant.
	ListDocuments(ctx context.Context, tenantID string) ([]*core.DocumentVersion, error)
}

// ChunkRepository stores the chunk sets of document versions together with
// their embedding vectors, and answers similarity queries over them.
type ChunkRepository interface {
	Repository
	// ReplaceChunks atomically replaces the chunk set stored for a version.
	// Any chunks from an earlier partial write are removed in the same
	// transaction, so a version's chunk set is always complete or absent.
	ReplaceChunks(ctx context.Context, tenantID, documentID string, version int, chunks []*core.Chunk) error

	// GetChunks returns the chunks of a version ordered by index.
	GetChunks(ctx context.Context, tenantID, documentID string, version int) ([]*core.Chunk, error)

	// UpdateChunkVectors rewrites the vectors of existing chunks in place.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error

	// SearchCurrent finds chunks similar to the given vector, considering
	// only chunks whose version is its document's current version and whose
	// document is not deleted. Returns hits with similarity >= minSimilarity,
	// up to limit, ordered by score (highest first).
	SearchCurrent(ctx context.Context, tenantID string, vector []float32, minSimilarity float32, limit int) ([]*core.VectorHit, error)

	// IterateCurrentChunks streams every chunk belonging to a current, live
	// version of the tenant's documents. Iteration stops when fn returns an
	// error, which is passed through.
	IterateCurrentChunks(ctx context.Context, tenantID string, fn func(*core.Chunk) error) error

	// DeleteChunks removes the chunk set of a version.
	DeleteChunks(ctx context.Context, tenantID, documentID string, version int) error
}

// QueueRepository is the durable work queue feeding the ingestion pipeline.
// Entries survive restarts; completed and failed entries are retained.
type QueueRepository interface {
	Repository
	// Enqueue persists a new entry in the queued state. An Id is assigned
	// from a sequence, timestamps are set, and a zero priority on the item
	// is replaced with the default. Returns the stored entry.
	Enqueue(ctx context.Context, entry *core.QueueEntry) (*core.QueueEntry, error)

	// ClaimNext atomically claims the ready entry with the highest
	// priority, breaking ties by oldest CreatedAt. The entry moves to
	// processing and records the claiming worker. Returns ErrNotFound when
	// no entry is ready and ErrClaimConflict when a concurrent claim won
	// the race; callers treat the latter as a signal to poll again.
	ClaimNext(ctx context.Context, workerID string) (*core.QueueEntry, error)

	// MarkCompleted moves a processing entry to completed.
	MarkCompleted(ctx context.Context, id core.ID) error

	// MarkFailed records a failure for a processing entry. With retries
	// remaining and permanent false, the entry returns to queued with
	// NextRetryAt pushed out exponentially; otherwise it becomes failed.
	// Returns the updated entry.
	MarkFailed(ctx context.Context, id core.ID, cause string, permanent bool) (*core.QueueEntry, error)

	// Cancel withdraws an entry that is still queued. Entries in any other
	// state return ErrInvalidTransition.
	Cancel(ctx context.Context, id core.ID) error

	// Reset returns a terminally failed entry to queued with a fresh retry
	// budget. Entries in any other state return ErrInvalidTransition.
	Reset(ctx context.Context, id core.ID) error

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.QueueEntry, error)

	// ListEntries returns entries for a tenant (empty string for all
	// tenants), optionally filtered by status (zero for all), newest
	// first, up to limit.
	ListEntries(ctx context.Context, tenantID string, status core.QueueStatus, limit int) ([]*core.QueueEntry, error)
}

// ArchiveRepository keeps the unmodified full text of every ingested
// version for audit and reprocessing.
type ArchiveRepository interface {
	Repository
	// PutRecord stores the full text of a version. Writing the same
	// (tenant, document, version) again overwrites idempotently.
	PutRecord(ctx context.Context, record *core.ArchiveRecord) error

	// GetRecord retrieves one archived version.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, tenantID, documentID string, version int) (*core.ArchiveRecord, error)

	// ListRecords returns every archived version of a document, oldest first.
	ListRecords(ctx context.Context, tenantID, documentID string) ([]*core.ArchiveRecord, error)

	// SoftDeleteDocument flags every archived version of a document as
	// deleted while preserving the data.
	SoftDeleteDocument(ctx context.Context, tenantID, documentID string) error
}

// ProgressRepository records which pipeline stages completed for a queue
// entry, so retries resume instead of repeating side effects.
type ProgressRepository interface {
	Repository
	// GetProgress returns the stage record for a queue entry.
	// Returns ErrNotFound if no stage has completed yet.
	GetProgress(ctx context.Context, entryID core.ID) (*core.StageProgress, error)

	// SaveProgress upserts the stage record for a queue entry.
	SaveProgress(ctx context.Context, progress *core.StageProgress) error

	// DeleteProgress removes the stage record once the entry is terminal.
	DeleteProgress(ctx context.Context, entryID core.ID) error
}

// GraphRepository persists the local entity/relationship graph: episodes,
// entities deduplicated by content-derived ID, and relation edges.
type GraphRepository interface {
	Repository
	// PutEpisode stores an episode keyed by (tenant, document, version).
	// Writing the same key again overwrites idempotently.
	PutEpisode(ctx context.Context, ep *core.Episode) error

	// GetEpisode retrieves one episode.
	// Returns ErrNotFound if the episode doesn't exist.
	GetEpisode(ctx context.Context, tenantID, documentID string, version int) (*core.Episode, error)

	// EpisodesForDocument lists a document's episodes, oldest version first.
	EpisodesForDocument(ctx context.Context, tenantID, documentID string) ([]*core.Episode, error)

	// IterateEpisodes streams every episode of a tenant. Iteration stops
	// when fn returns an error, which is passed through.
	IterateEpisodes(ctx context.Context, tenantID string, fn func(*core.Episode) error) error

	// UpsertEntities adds entities, preserving InsertedAt on ones that
	// already exist. Returns the stored entities with timestamps populated.
	UpsertEntities(ctx context.Context, entities ...*core.Entity) ([]*core.Entity, error)

	// GetEntity retrieves a single entity by ID.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, tenantID string, id core.ID) (*core.Entity, error)

	// IterateEntities streams every entity of a tenant. Iteration stops
	// when fn returns an error, which is passed through.
	IterateEntities(ctx context.Context, tenantID string, fn func(*core.Entity) error) error

	// AddRelations stores relation edges between entities.
	AddRelations(ctx context.Context, relations ...*core.Relation) error

	// RelationsForEntity returns every edge that starts or ends at the
	// given entity.
	RelationsForEntity(ctx context.Context, tenantID string, id core.ID) ([]*core.Relation, error)

	// DeleteDocument removes a document's episodes and the relation edges
	// they asserted. Entities are shared across documents and remain.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
}
