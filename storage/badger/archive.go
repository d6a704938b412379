package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// ArchiveRepository implements storage.ArchiveRepository for BadgerDB.
// Records are keyed by (tenant, document, version), so re-archiving the
// same version is a plain overwrite.
type ArchiveRepository struct {
	backend *Backend
}

var _ storage.ArchiveRepository = (*ArchiveRepository)(nil)

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(backend *Backend) *ArchiveRepository {
	return &ArchiveRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ArchiveRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ArchiveRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutRecord stores the full text of a version.
func (r *ArchiveRepository) PutRecord(ctx context.Context, record *core.ArchiveRecord) error {
	if record.TenantId == "" {
		return core.ErrEmptyTenant
	}
	if record.DocumentId == "" {
		return core.ErrEmptyDocumentId
	}
	if record.Version < 1 {
		return core.ErrInvalidVersion
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		row := *record
		if row.ArchivedAt.IsZero() {
			row.ArchivedAt = time.Now().UTC()
		}

		key := makeArchiveKey(row.TenantId, row.DocumentId, row.Version)
		if err := tx.Set(key, storage.MarshalArchiveRecord(&row)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves one archived version.
func (r *ArchiveRepository) GetRecord(ctx context.Context, tenantID, documentID string, version int) (*core.ArchiveRecord, error) {
	var result *core.ArchiveRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readArchiveRecord(tx, makeArchiveKey(tenantID, documentID, version))
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

// ListRecords returns every archived version of a document, oldest first.
func (r *ArchiveRepository) ListRecords(ctx context.Context, tenantID, documentID string) ([]*core.ArchiveRecord, error) {
	var results []*core.ArchiveRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = collectArchiveRecords(tx, makeArchiveDocPrefix(tenantID, documentID))
		return err
	}, false)
	return results, err
}

// SoftDeleteDocument flags every archived version of a document as deleted.
func (r *ArchiveRepository) SoftDeleteDocument(ctx context.Context, tenantID, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		rows, err := collectArchiveRecords(tx, makeArchiveDocPrefix(tenantID, documentID))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return storage.ErrNotFound
		}

		for _, row := range rows {
			row.IsDeleted = true
			key := makeArchiveKey(row.TenantId, row.DocumentId, row.Version)
			if err := tx.Set(key, storage.MarshalArchiveRecord(row)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// readArchiveRecord reads an archive record from the transaction.
func readArchiveRecord(tx *badger.Txn, key []byte) (*core.ArchiveRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ArchiveRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalArchiveRecord(val)
		return unmarshalErr
	})
	return record, err
}

// collectArchiveRecords loads every record under a prefix in version order,
// closing its iterator before returning so the caller may commit.
func collectArchiveRecords(tx *badger.Txn, prefix []byte) ([]*core.ArchiveRecord, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var rows []*core.ArchiveRecord
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var record *core.ArchiveRecord
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalArchiveRecord(val)
			return unmarshalErr
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}
