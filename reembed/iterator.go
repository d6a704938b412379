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


package reembed

import (
	"context"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

const (
	// DefaultBatchSize is the default number of chunks to process in each batch
	DefaultBatchSize = 100
)

// ChunkIterator iterates over a tenant's current-version chunks in batches.
// Chunks of superseded or deleted versions are never visited.
type ChunkIterator struct {
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks to hand to each batch (must be > 0)
func NewChunkIterator(chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChunkIterator{
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// ForEach iterates over the tenant's current chunks, calling fn for each batch.
// Iteration stops on first error from fn or when all chunks are processed.
// Context cancellation is checked between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, tenantID string, fn func([]*core.Chunk) error) error {
	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Materialize the chunk set first; fn writes vectors back and must
	// not run inside the read transaction.
	var chunks []*core.Chunk
	err := it.chunks.IterateCurrentChunks(ctx, tenantID, func(chunk *core.Chunk) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		// No chunks to process
		return nil
	}

	// Process chunks in batches of batchSize
	for i := 0; i < len(chunks); i += it.batchSize {
		end := i + it.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[i:end]

		// Call user function with batch
		if err := fn(batch); err != nil {
			return err
		}

		// Check context after each batch
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
