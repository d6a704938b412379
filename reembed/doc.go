// Package reembed rewrites the stored vectors of current-version chunks
// with a new or updated embedding model.
//
// Chunks are processed per tenant in batches with retry logic and
// exponential backoff. Regenerated vectors are normalized to unit length
// before being written back, keeping the dot product usable as the
// cosine similarity. Superseded and deleted versions are skipped.
package reembed
