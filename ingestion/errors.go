package ingestion

import (
	"errors"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// Stage failure taxonomy. The queue looks at these through IsRetryable to
// decide between a backoff retry and a terminal failure.
var (
	// ErrHashComputation marks malformed input: an empty document
	// identity or text that is not valid UTF-8. Permanent.
	ErrHashComputation = errors.New("hash computation failed")

	// ErrEmbeddingProvider marks an embedding backend failure, including
	// a response with the wrong number of vectors.
	ErrEmbeddingProvider = errors.New("embedding provider failed")

	// ErrDimensionMismatch marks a returned vector whose length disagrees
	// with the configured embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrGraphBackend marks a graph backend failure.
	ErrGraphBackend = errors.New("graph backend failed")

	// ErrArchiveWrite marks an archive store failure.
	ErrArchiveWrite = errors.New("archive write failed")
)

var (
	// ErrVersionRepositoryRequired is returned when a version repository is not provided.
	ErrVersionRepositoryRequired = errors.New("version repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrArchiveRepositoryRequired is returned when an archive repository is not provided.
	ErrArchiveRepositoryRequired = errors.New("archive repository required")

	// ErrProgressRepositoryRequired is returned when a progress repository is not provided.
	ErrProgressRepositoryRequired = errors.New("progress repository required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrGraphBackendRequired is returned when a graph backend is not provided.
	ErrGraphBackendRequired = errors.New("graph backend required")
)

// IsRetryable reports whether a pipeline failure may succeed on a later
// attempt. Malformed input, invalid items and version number collisions
// are permanent; everything else is presumed transient and left to the
// retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrHashComputation) ||
		errors.Is(err, core.ErrInvalidContentItem) ||
		errors.Is(err, storage.ErrVersionConflict) {
		return false
	}
	return true
}
