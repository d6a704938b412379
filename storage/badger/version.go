package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// VersionRepository implements storage.VersionRepository for BadgerDB.
//
// Version rows live under one key per (tenant, document, version). A
// separate pointer key per document names the current version; readers
// resolve the pointer, so a half-finished ingestion (rows written, pointer
// not moved) is invisible to them.
type VersionRepository struct {
	backend *Backend
}

var _ storage.VersionRepository = (*VersionRepository)(nil)

// NewVersionRepository creates a new VersionRepository.
func NewVersionRepository(backend *Backend) *VersionRepository {
	return &VersionRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *VersionRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VersionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// InsertVersion adds a new version row in the non-current state.
func (r *VersionRepository) InsertVersion(ctx context.Context, version *core.DocumentVersion) error {
	if version.TenantId == "" {
		return storage.ErrInvalidQuery
	}
	if version.DocumentId == "" || version.Version < 1 {
		return storage.ErrInvalidQuery
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeVersionKey(version.TenantId, version.DocumentId, version.Version)

		existing, err := readVersion(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.ContentHash == version.ContentHash {
				// Same row written twice, e.g. by a retried entry.
				return nil
			}
			// Another producer placed different content at this number.
			// Version numbers never get reused, so this is never retried.
			return storage.ErrVersionConflict
		}

		row := *version
		row.IsCurrent = false
		row.PromotedAt = time.Time{}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}

		if err := tx.Set(key, storage.MarshalDocumentVersion(&row)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetVersion retrieves a single version row.
func (r *VersionRepository) GetVersion(ctx context.Context, tenantID, documentID string, version int) (*core.DocumentVersion, error) {
	var result *core.DocumentVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readVersion(tx, makeVersionKey(tenantID, documentID, version))
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

// CurrentVersion returns the version row the current pointer designates.
func (r *VersionRepository) CurrentVersion(ctx context.Context, tenantID, documentID string) (*core.DocumentVersion, error) {
	var result *core.DocumentVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		current, err := readCurrentPointer(tx, tenantID, documentID)
		if err != nil {
			return err
		}
		if current == 0 {
			return storage.ErrNotFound
		}

		result, err = readVersion(tx, makeVersionKey(tenantID, documentID, current))
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

// LatestVersion returns the row with the highest version number.
func (r *VersionRepository) LatestVersion(ctx context.Context, tenantID, documentID string) (*core.DocumentVersion, error) {
	var result *core.DocumentVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVersionPrefix(tenantID, documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Version numbers are BigEndian suffixes, so the last key in the
		// prefix scan is the highest version.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var err error
			result, err = valueVersion(iter.Item())
			if err != nil {
				return err
			}
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListVersions returns every version row of a document, oldest first.
func (r *VersionRepository) ListVersions(ctx context.Context, tenantID, documentID string) ([]*core.DocumentVersion, error) {
	var results []*core.DocumentVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVersionPrefix(tenantID, documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			row, err := valueVersion(iter.Item())
			if err != nil {
				return err
			}
			results = append(results, row)
		}
		return nil
	}, false)
	return results, err
}

// Promote makes the given version current in a single transaction.
func (r *VersionRepository) Promote(ctx context.Context, tenantID, documentID string, version int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeVersionKey(tenantID, documentID, version)
		row, err := readVersion(tx, key)
		if err != nil {
			return err
		}
		if row == nil {
			return storage.ErrNotFound
		}

		previous, err := readCurrentPointer(tx, tenantID, documentID)
		if err != nil {
			return err
		}
		if previous != 0 && previous != version {
			prevKey := makeVersionKey(tenantID, documentID, previous)
			prevRow, err := readVersion(tx, prevKey)
			if err != nil {
				return err
			}
			if prevRow != nil && prevRow.IsCurrent {
				prevRow.IsCurrent = false
				if err := tx.Set(prevKey, storage.MarshalDocumentVersion(prevRow)); err != nil {
					return err
				}
			}
		}

		row.IsCurrent = true
		row.IsDeleted = false
		row.PromotedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalDocumentVersion(row)); err != nil {
			return err
		}

		ptrKey := makeCurrentPtrKey(tenantID, documentID)
		if err := tx.Set(ptrKey, storage.MarshalID(core.ID(version))); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SetChunkCount records how many chunks were stored for a version.
func (r *VersionRepository) SetChunkCount(ctx context.Context, tenantID, documentID string, version, count int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeVersionKey(tenantID, documentID, version)
		row, err := readVersion(tx, key)
		if err != nil {
			return err
		}
		if row == nil {
			return storage.ErrNotFound
		}

		row.ChunkCount = count
		if err := tx.Set(key, storage.MarshalDocumentVersion(row)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SoftDeleteDocument marks every version row deleted and clears the
// current pointer.
func (r *VersionRepository) SoftDeleteDocument(ctx context.Context, tenantID, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		rows, err := collectVersions(tx, makeVersionPrefix(tenantID, documentID))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return storage.ErrNotFound
		}

		for _, row := range rows {
			row.IsDeleted = true
			row.IsCurrent = false
			key := makeVersionKey(row.TenantId, row.DocumentId, row.Version)
			if err := tx.Set(key, storage.MarshalDocumentVersion(row)); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeCurrentPtrKey(tenantID, documentID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListDocuments returns the current version row of every live document
// belonging to the tenant.
func (r *VersionRepository) ListDocuments(ctx context.Context, tenantID string) ([]*core.DocumentVersion, error) {
	var results []*core.DocumentVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCurrentPtrPrefix(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var current core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				current, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// The pointer value names the version but not the document, so
			// the row key is recovered from the pointer key's suffix.
			documentID, ok := documentIDFromPointerKey(iter.Item().Key(), tenantID)
			if !ok {
				continue
			}

			row, err := readVersion(tx, makeVersionKey(tenantID, documentID, int(current)))
			if err != nil {
				return err
			}
			if row != nil && !row.IsDeleted {
				results = append(results, row)
			}
		}
		return nil
	}, false)
	return results, err
}

// Helper methods

// readVersion reads a version row from the transaction.
func readVersion(tx *badger.Txn, key []byte) (*core.DocumentVersion, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	return valueVersion(item)
}

// valueVersion decodes a version row from an item's value.
func valueVersion(item *badger.Item) (*core.DocumentVersion, error) {
	var row *core.DocumentVersion
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		row, unmarshalErr = storage.UnmarshalDocumentVersion(val)
		return unmarshalErr
	})
	return row, err
}

// collectVersions loads every version row under a prefix, closing its
// iterator before returning so the caller may commit.
func collectVersions(tx *badger.Txn, prefix []byte) ([]*core.DocumentVersion, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var rows []*core.DocumentVersion
	for iter.Rewind(); iter.Valid(); iter.Next() {
		row, err := valueVersion(iter.Item())
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readCurrentPointer returns the current version number of a document, or
// 0 when the document has no current version.
func readCurrentPointer(tx *badger.Txn, tenantID, documentID string) (int, error) {
	item, err := tx.Get(makeCurrentPtrKey(tenantID, documentID))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var current core.ID
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		current, unmarshalErr = storage.UnmarshalID(val)
		return unmarshalErr
	})
	return int(current), err
}

// documentIDFromPointerKey extracts the document id from a current pointer
// key, given the tenant whose prefix was scanned.
func documentIDFromPointerKey(key []byte, tenantID string) (string, bool) {
	prefix := makeCurrentPtrPrefix(tenantID)
	if len(key) < len(prefix)+2 {
		return "", false
	}
	rest := key[len(prefix):]
	l := int(rest[0])<<8 | int(rest[1])
	if len(rest) < 2+l {
		return "", false
	}
	return string(rest[2 : 2+l]), true
}
