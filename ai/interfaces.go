package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// BoundaryDetector finds topical break points in a sequence of text fragments.
// Implementations must be thread-safe for concurrent use.
type BoundaryDetector interface {
	// DetectBoundaries inspects fragments (sentences or paragraphs in document
	// order) and returns the indexes of the fragments that begin a new topical
	// section. Returned indexes are strictly ascending and satisfy
	// 0 < index < len(fragments); the first fragment is an implicit boundary
	// and is never reported. An empty result means the input reads as a single
	// section. Returns an error if detection fails; callers fall back to a
	// deterministic splitter.
	DetectBoundaries(ctx context.Context, fragments []string) ([]int, error)
}

// EntityExtractor pulls named entities and the relations between them from text.
// Implementations must be thread-safe for concurrent use.
type EntityExtractor interface {
	// ExtractEntities analyzes text and returns the entities it names together
	// with directed relations between those entities. Entities carry a salience
	// score; implementations filter out entities below their configured
	// threshold and drop relations whose endpoints were filtered.
	// Returns an empty extraction if nothing is found.
	// Returns an error if extraction fails.
	ExtractEntities(ctx context.Context, text string) (*Extraction, error)
}

// ExtractedEntity represents a named entity identified in text.
// Each entity has a name, a type (category), and a salience score indicating
// how central it is to the text.
type ExtractedEntity struct {
	// Name is the entity identifier in lowercase, 1-3 words, singular form.
	// Example: "eiffel tower", "paris", "alice"
	Name string

	// Type categorizes the entity (e.g., "building", "place", "person").
	// Must match one of the predefined entity types.
	Type string

	// Salience is a score from 1-10 indicating how central this entity
	// is to understanding the text. Higher scores = more central.
	Salience int
}

// ExtractedRelation is a directed assertion between two extracted entities.
type ExtractedRelation struct {
	// From and To name the endpoint entities exactly as they appear in the
	// extraction's entity list.
	From string
	To   string

	// Verb is the lowercase predicate connecting the endpoints.
	// Example: "works at", "located in"
	Verb string
}

// Extraction is the result of analyzing one piece of text.
type Extraction struct {
	Entities  []ExtractedEntity
	Relations []ExtractedRelation
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder, BoundaryDetector and EntityExtractor
// instances, ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// BoundaryDetector returns the chunk boundary detection service.
	// The returned BoundaryDetector is safe for concurrent use.
	BoundaryDetector() BoundaryDetector

	// EntityExtractor returns the entity extraction service.
	// The returned EntityExtractor is safe for concurrent use.
	EntityExtractor() EntityExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
