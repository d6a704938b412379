// Package chunking splits document text into embedding-sized chunks.
//
// Two chunkers are provided:
//   - ParagraphChunker: deterministic splitting on blank-line paragraph
//     boundaries with greedy forward merging.
//   - SemanticChunker: asks an ai.BoundaryDetector where topics shift and
//     groups paragraphs into sections accordingly, falling back to the
//     paragraph chunker whenever detection fails.
//
// Both honor the same sizing contract: no chunk exceeds the configured
// maximum, only the final chunk may fall below the configured minimum, and
// whitespace-only input yields zero chunks without error. Single runs longer
// than the maximum are split at character boundaries as a last resort.
package chunking
