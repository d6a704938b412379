package badger

import (
	"context"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// GraphRepository implements storage.GraphRepository for BadgerDB.
//
// Episodes are keyed by (tenant, document, version), entities by their
// content-derived ID, and relation edges are written twice, once under the
// from-entity and once under the to-entity, so traversal in either
// direction is a prefix scan.
type GraphRepository struct {
	backend *Backend
}

var _ storage.GraphRepository = (*GraphRepository)(nil)

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository(backend *Backend) *GraphRepository {
	return &GraphRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *GraphRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *GraphRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutEpisode stores an episode keyed by (tenant, document, version).
func (r *GraphRepository) PutEpisode(ctx context.Context, ep *core.Episode) error {
	if err := core.ValidateEpisode(ep); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		row := *ep
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}

		key := makeEpisodeKey(row.TenantId, row.DocumentId, row.Version)
		if err := tx.Set(key, storage.MarshalEpisode(&row)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEpisode retrieves one episode.
func (r *GraphRepository) GetEpisode(ctx context.Context, tenantID, documentID string, version int) (*core.Episode, error) {
	var result *core.Episode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEpisodeKey(tenantID, documentID, version))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalEpisode(val)
			return unmarshalErr
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// EpisodesForDocument lists a document's episodes, oldest version first.
func (r *GraphRepository) EpisodesForDocument(ctx context.Context, tenantID, documentID string) ([]*core.Episode, error) {
	var results []*core.Episode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEpisodeDocPrefix(tenantID, documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var ep *core.Episode
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				ep, unmarshalErr = storage.UnmarshalEpisode(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, ep)
		}
		return nil
	}, false)
	return results, err
}

// IterateEpisodes streams every episode of a tenant.
func (r *GraphRepository) IterateEpisodes(ctx context.Context, tenantID string, fn func(*core.Episode) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEpisodeTenantPrefix(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var ep *core.Episode
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				ep, unmarshalErr = storage.UnmarshalEpisode(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}

			if err := fn(ep); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// UpsertEntities adds entities, preserving InsertedAt on ones that already
// exist.
func (r *GraphRepository) UpsertEntities(ctx context.Context, entities ...*core.Entity) ([]*core.Entity, error) {
	stored := make([]*core.Entity, 0, len(entities))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, entity := range entities {
			if err := core.ValidateEntity(entity); err != nil {
				return err
			}

			row := *entity
			if row.Id == 0 {
				row.Id = core.IDFromContent(row.Tuple())
			}

			existing, err := readEntity(tx, makeEntityKey(row.TenantId, row.Id))
			if err != nil {
				return err
			}
			if existing != nil {
				row.InsertedAt = existing.InsertedAt
			} else {
				row.InsertedAt = now
			}
			row.UpdatedAt = now

			if err := tx.Set(makeEntityKey(row.TenantId, row.Id), storage.MarshalEntity(&row)); err != nil {
				return err
			}
			stored = append(stored, &row)
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetEntity retrieves a single entity by ID.
func (r *GraphRepository) GetEntity(ctx context.Context, tenantID string, id core.ID) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntity(tx, makeEntityKey(tenantID, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// IterateEntities streams every entity of a tenant.
func (r *GraphRepository) IterateEntities(ctx context.Context, tenantID string, fn func(*core.Entity) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntityPrefix(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entity *core.Entity
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				entity, unmarshalErr = storage.UnmarshalEntity(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}

			if err := fn(entity); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// AddRelations stores relation edges between entities. Edges are keyed by
// their content, so writing the same edge again is an overwrite.
func (r *GraphRepository) AddRelations(ctx context.Context, relations ...*core.Relation) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, rel := range relations {
			if err := core.ValidateRelation(rel); err != nil {
				return err
			}

			row := *rel
			if row.CreatedAt.IsZero() {
				row.CreatedAt = now
			}

			edgeID := relationEdgeID(&row)
			value := storage.MarshalRelation(&row)

			forward := makeRelationKey(row.TenantId, row.FromId, row.ToId, edgeID)
			if err := tx.Set(forward, value); err != nil {
				return err
			}
			reverse := makeRelationReverseKey(row.TenantId, row.ToId, row.FromId, edgeID)
			if err := tx.Set(reverse, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// RelationsForEntity returns every edge that starts or ends at the given
// entity.
func (r *GraphRepository) RelationsForEntity(ctx context.Context, tenantID string, id core.ID) ([]*core.Relation, error) {
	var results []*core.Relation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		outgoing, err := collectRelations(tx, makeRelationFromPrefix(tenantID, id))
		if err != nil {
			return err
		}
		results = append(results, outgoing...)

		incoming, err := collectRelations(tx, makeRelationToPrefix(tenantID, id))
		if err != nil {
			return err
		}
		for _, rel := range incoming {
			// A self-referencing edge already appeared in the outgoing scan.
			if rel.FromId == rel.ToId {
				continue
			}
			results = append(results, rel)
		}
		return nil
	}, false)
	return results, err
}

// DeleteDocument removes a document's episodes and the relation edges they
// asserted. Entity records stay; other documents may reference them.
func (r *GraphRepository) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		keys, err := collectKeys(tx, makeEpisodeDocPrefix(tenantID, documentID))
		if err != nil {
			return err
		}

		edges, err := documentRelationKeys(tx, tenantID, documentID)
		if err != nil {
			return err
		}
		keys = append(keys, edges...)

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// relationEdgeID derives a stable edge identifier, so re-ingesting a
// version rewrites its edges instead of duplicating them.
func relationEdgeID(rel *core.Relation) core.ID {
	return core.IDFromContent(rel.Verb + "|" + rel.DocumentId + "|" + strconv.Itoa(rel.Version))
}

// readEntity reads an entity from the transaction.
func readEntity(tx *badger.Txn, key []byte) (*core.Entity, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entity *core.Entity
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entity, unmarshalErr = storage.UnmarshalEntity(val)
		return unmarshalErr
	})
	return entity, err
}

// documentRelationKeys finds both key forms of every edge a document
// asserted. Edge keys carry no document component, so this scans the
// tenant's forward index and filters on the stored DocumentId.
func documentRelationKeys(tx *badger.Txn, tenantID, documentID string) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeRelationTenantPrefix(tenantID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var rel *core.Relation
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			rel, unmarshalErr = storage.UnmarshalRelation(val)
			return unmarshalErr
		})
		if err != nil {
			return nil, err
		}
		if rel.DocumentId != documentID {
			continue
		}

		edgeID := relationEdgeID(rel)
		keys = append(keys,
			makeRelationKey(rel.TenantId, rel.FromId, rel.ToId, edgeID),
			makeRelationReverseKey(rel.TenantId, rel.ToId, rel.FromId, edgeID))
	}
	return keys, nil
}

// collectRelations loads every relation under a prefix, closing its
// iterator before returning.
func collectRelations(tx *badger.Txn, prefix []byte) ([]*core.Relation, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var rows []*core.Relation
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var rel *core.Relation
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			rel, unmarshalErr = storage.UnmarshalRelation(val)
			return unmarshalErr
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, rel)
	}
	return rows, nil
}
