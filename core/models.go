package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NormalizeContent collapses every run of whitespace to a single space and
// trims the ends. Case is preserved. Hashing and version comparison operate
// on the normalized form, so formatting-only edits do not create versions.
func NormalizeContent(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// HashContent returns the hex-encoded BLAKE2b-256 fingerprint of the
// normalized text. Identical content always produces an identical hash.
func HashContent(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalidEncoding
	}
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(NormalizeContent(text)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SourceType classifies where a piece of content originated. The set is
// open: producers may submit types beyond the well-known ones below.
type SourceType string

const (
	SourceTypeNote    SourceType = "note"
	SourceTypeVideo   SourceType = "youtube_video"
	SourceTypeWebpage SourceType = "webpage"
	SourceTypeEmail   SourceType = "email"
	SourceTypeChat    SourceType = "chat"
)

// ContentItem is a unit of content submitted for ingestion.
type ContentItem struct {
	TenantId    string
	ProjectId   string
	SourceType  SourceType
	SourceId    string
	Title       string
	Text        string
	Metadata    map[string]string // Optional producer metadata (e.g. "channel", "url")
	Priority    int               // 1-10, higher is processed first; 0 selects the default
	SubmittedAt time.Time
}

// DocumentID returns the stable document identity for the item, derived
// from its source coordinates. Every version of the same source shares it.
func (c *ContentItem) DocumentID() string {
	return string(c.SourceType) + ":" + c.SourceId
}

// DocumentVersion is one immutable version of a document's content.
// A document has at most one current version per tenant, and the current
// flag flips only after every store holds the new version's data.
type DocumentVersion struct {
	TenantId    string
	DocumentId  string
	Version     int    // 1-based, monotonically increasing per document
	ContentHash string // hex BLAKE2b-256 of the normalized text
	Title       string
	SourceType  SourceType
	ProjectId   string
	ChunkCount  int
	CreatedAt   time.Time
	PromotedAt  time.Time // zero until the version becomes current
	IsCurrent   bool
	IsDeleted   bool
}

// Chunk is a contiguous span of one version's text together with its
// embedding vector. Index is the zero-based position within the version.
type Chunk struct {
	TenantId   string
	DocumentId string
	Version    int
	Index      int
	Text       string
	Vector     []float32
	CreatedAt  time.Time
}

// Episode is the graph-store representation of one document version.
// Exactly one episode exists per (tenant, document, version).
type Episode struct {
	TenantId   string
	DocumentId string
	Version    int
	Name       string
	Body       string
	Summary    string
	Source     SourceType
	Entities   []EntityRef // Entities extracted from the body (populated by the graph backend)
	OccurredAt time.Time   // When the underlying content was produced
	CreatedAt  time.Time
}

// Entity is a named thing extracted from episode content.
type Entity struct {
	Id         ID
	TenantId   string
	Name       string
	Type       string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Tuple returns a string representation of the entity as "(Type,Name)".
// This is used for generating deterministic IDs.
func (e *Entity) Tuple() string {
	return "(" + e.Type + "," + e.Name + ")"
}

// EntityRef represents a reference to an entity with a salience score.
type EntityRef struct {
	EntityId ID
	Salience int // Salience score from 1-10
}

// Relation is a directed edge between two entities asserted by a
// document version's episode.
type Relation struct {
	TenantId   string
	FromId     ID
	ToId       ID
	Verb       string
	DocumentId string
	Version    int
	CreatedAt  time.Time
}

// QueueStatus is the lifecycle state of a queue entry.
type QueueStatus int

const (
	// StatusQueued means the entry is waiting to be claimed.
	StatusQueued QueueStatus = iota + 1
	// StatusProcessing means a worker holds the entry.
	StatusProcessing
	// StatusCompleted means processing finished, possibly as a skip.
	StatusCompleted
	// StatusFailed means retries are exhausted or the error was permanent.
	StatusFailed
	// StatusCancelled means the entry was withdrawn before being claimed.
	StatusCancelled
)

// String returns the lowercase name of the status.
func (s QueueStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// QueueEntry is a durable unit of ingestion work. Entries survive restarts
// and are retained after they reach a terminal status.
type QueueEntry struct {
	Id          ID
	Item        ContentItem
	Priority    int // 1-10, higher first; copied from the item at enqueue
	Status      QueueStatus
	RetryCount  int
	MaxRetries  int
	LastError   string
	ClaimedBy   string // Worker identity holding the entry while processing
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time // Zero when the entry is ready immediately
	CompletedAt time.Time // Zero until the entry reaches a terminal status
}

// Ready reports whether the entry can be claimed at the given instant.
func (e *QueueEntry) Ready(now time.Time) bool {
	return e.Status == StatusQueued && (e.NextRetryAt.IsZero() || !e.NextRetryAt.After(now))
}

// ArchiveRecord is the unmodified full text of one document version,
// kept for audit and reprocessing. Deletion is a soft flag.
type ArchiveRecord struct {
	TenantId   string
	DocumentId string
	Version    int
	Title      string
	Text       string
	SourceType SourceType
	SourceId   string
	ProjectId  string
	Metadata   map[string]string
	ArchivedAt time.Time
	IsDeleted  bool
}

// StageProgress records which pipeline stages completed for a queue entry,
// so a retried entry never repeats work that already succeeded. In
// particular a replayed entry must not create a second episode.
type StageProgress struct {
	EntryId     ID
	VectorDone  bool
	GraphDone   bool
	ArchiveDone bool
	EpisodeRef  string // Graph identity returned by the backend when GraphDone was set
	UpdatedAt   time.Time
}

// VectorHit is a chunk matched by vector similarity search.
type VectorHit struct {
	Chunk Chunk
	Title string
	Score float32 // Cosine similarity clipped to [0,1]
}

// GraphHit is a fact surfaced by the graph store.
type GraphHit struct {
	Fact       string
	Entities   []string
	DocumentId string
	Version    int
	Score      float32
}

// QueryResult carries the two result lists of a combined query. The lists
// stay separate; no cross-store ranking is applied. Warnings names stores
// that failed while the other still answered.
type QueryResult struct {
	VectorHits []VectorHit
	GraphHits  []GraphHit
	Warnings   []string
}
