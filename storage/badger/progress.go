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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// ProgressRepository implements storage.ProgressRepository for BadgerDB.
// One record per queue entry tracks which pipeline stages already ran, so
// a retried entry skips completed side effects instead of repeating them.
type ProgressRepository struct {
	backend *Backend
}

var _ storage.ProgressRepository = (*ProgressRepository)(nil)

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(backend *Backend) *ProgressRepository {
	return &ProgressRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ProgressRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ProgressRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetProgress returns the stage record for a queue entry.
func (r *ProgressRepository) GetProgress(ctx context.Context, entryID core.ID) (*core.StageProgress, error) {
	var result *core.StageProgress
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeProgressKey(entryID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalStageProgress(val)
			return unmarshalErr
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// SaveProgress upserts the stage record for a queue entry.
func (r *ProgressRepository) SaveProgress(ctx context.Context, progress *core.StageProgress) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		row := *progress
		row.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeProgressKey(row.EntryId), storage.MarshalStageProgress(&row)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteProgress removes the stage record once the entry is terminal.
// Deleting a record that does not exist is not an error.
func (r *ProgressRepository) DeleteProgress(ctx context.Context, entryID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeProgressKey(entryID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
