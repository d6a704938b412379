// Package ingestion turns submitted content items into versioned, indexed
// documents.
//
// The Pipeline type runs one item through the full chain:
//   - Deciding whether the content is new, changed, or unchanged
//   - Chunking the text and embedding every chunk
//   - Submitting an episode to the knowledge graph
//   - Archiving the unmodified text
//   - Promoting the version so queries see it
//
// Stage completion is recorded per queue entry. A retried entry skips
// stages the previous attempt finished, so a partial failure never writes
// a duplicate episode or chunk set. Promotion at the end is the single
// step that makes the new version visible; until then queries keep
// serving the previous one.
package ingestion
