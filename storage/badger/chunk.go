package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
//
// Chunks are stored one key per (tenant, document, version, index) with
// the vector inline in the value. Similarity search is a tenant-scoped
// scan; vectors are unit-normalized at write time, so the dot product is
// the cosine similarity.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceChunks atomically replaces the chunk set stored for a version.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, tenantID, documentID string, version int, chunks []*core.Chunk) error {
	if tenantID == "" || documentID == "" || version < 1 {
		return storage.ErrInvalidQuery
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		// Remove any chunks from an earlier partial write first, so the
		// version's set is complete or absent, never mixed.
		stale, err := collectKeys(tx, makeChunkVersionPrefix(tenantID, documentID, version))
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		for i, chunk := range chunks {
			row := *chunk
			row.TenantId = tenantID
			row.DocumentId = documentID
			row.Version = version
			row.Index = i
			if row.CreatedAt.IsZero() {
				row.CreatedAt = now
			}

			key := makeChunkKey(tenantID, documentID, version, i)
			if err := tx.Set(key, storage.MarshalChunk(&row)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunks returns the chunks of a version ordered by index.
func (r *ChunkRepository) GetChunks(ctx context.Context, tenantID, documentID string, version int) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkVersionPrefix(tenantID, documentID, version)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunk, err := valueChunk(iter.Item())
			if err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	}, false)
	return results, err
}

// UpdateChunkVectors rewrites the vectors of existing chunks in place.
func (r *ChunkRepository) UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.TenantId, chunk.DocumentId, chunk.Version, chunk.Index)
			stored, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if stored == nil {
				return storage.ErrNotFound
			}

			stored.Vector = chunk.Vector
			if err := tx.Set(key, storage.MarshalChunk(stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// SearchCurrent finds chunks of current, live versions similar to the
// given vector.
func (r *ChunkRepository) SearchCurrent(ctx context.Context, tenantID string, vector []float32, minSimilarity float32, limit int) ([]*core.VectorHit, error) {
	if tenantID == "" || len(vector) == 0 || limit < 1 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.VectorHit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docs := make(map[string]*docState)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkTenantPrefix(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunk, err := valueChunk(iter.Item())
			if err != nil {
				return err
			}

			doc, err := currentDocState(tx, docs, tenantID, chunk.DocumentId)
			if err != nil {
				return err
			}
			// Only chunks of a document's current version are searchable.
			if !doc.live || chunk.Version != doc.version {
				continue
			}

			// Skip chunks without embeddings
			if len(chunk.Vector) == 0 {
				continue
			}

			similarity := clipUnit(dotProduct(vector, chunk.Vector))
			if similarity >= minSimilarity {
				results = append(results, &core.VectorHit{
					Chunk: *chunk,
					Title: doc.title,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.VectorHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// IterateCurrentChunks streams every chunk belonging to a current, live
// version of the tenant's documents.
func (r *ChunkRepository) IterateCurrentChunks(ctx context.Context, tenantID string, fn func(*core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		docs := make(map[string]*docState)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkTenantPrefix(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			chunk, err := valueChunk(iter.Item())
			if err != nil {
				return err
			}

			doc, err := currentDocState(tx, docs, tenantID, chunk.DocumentId)
			if err != nil {
				return err
			}
			if !doc.live || chunk.Version != doc.version {
				continue
			}

			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// DeleteChunks removes the chunk set of a version.
func (r *ChunkRepository) DeleteChunks(ctx context.Context, tenantID, documentID string, version int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		keys, err := collectKeys(tx, makeChunkVersionPrefix(tenantID, documentID, version))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// docState caches a document's current version while a scan is running.
type docState struct {
	version int
	title   string
	live    bool
}

// currentDocState resolves (and caches) which version of a document is
// current within the transaction.
func currentDocState(tx *badger.Txn, cache map[string]*docState, tenantID, documentID string) (*docState, error) {
	if state, ok := cache[documentID]; ok {
		return state, nil
	}

	state := &docState{}
	current, err := readCurrentPointer(tx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if current != 0 {
		row, err := readVersion(tx, makeVersionKey(tenantID, documentID, current))
		if err != nil {
			return nil, err
		}
		if row != nil && !row.IsDeleted {
			state.version = current
			state.title = row.Title
			state.live = true
		}
	}

	cache[documentID] = state
	return state, nil
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	return valueChunk(item)
}

// valueChunk decodes a chunk from an item's value.
func valueChunk(item *badger.Item) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// collectKeys gathers every key under a prefix so they can be deleted
// after the iterator is closed.
func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// clipUnit clips a similarity score to the [0, 1] range.
func clipUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
