package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

const (
	defaultPriority    = 5
	defaultMaxRetries  = 3
	defaultBackoffBase = 5 * time.Second
	defaultBackoffCap  = 10 * time.Minute
)

// QueueRepository implements storage.QueueRepository for BadgerDB.
//
// Entries live under one key per id. A second index orders claimable
// entries by inverted priority and creation time, so the next claim is a
// short prefix scan. Claims ride on Badger's transaction conflict
// detection: two workers committing a claim of the same entry cannot both
// win, the loser observes ErrClaimConflict.
type QueueRepository struct {
	backend     *Backend
	idSeq       *badger.Sequence
	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration
}

var _ storage.QueueRepository = (*QueueRepository)(nil)

// QueueOption configures a QueueRepository.
type QueueOption func(*QueueRepository)

// WithMaxRetries sets how many times a failing entry is requeued before it
// becomes terminally failed.
func WithMaxRetries(n int) QueueOption {
	return func(r *QueueRepository) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay and cap of the exponential retry backoff.
func WithBackoff(base, cap time.Duration) QueueOption {
	return func(r *QueueRepository) {
		if base > 0 {
			r.backoffBase = base
		}
		if cap > 0 {
			r.backoffCap = cap
		}
	}
}

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(backend *Backend, opts ...QueueOption) (*QueueRepository, error) {
	idSeq, err := backend.GetSequence(queueEntryIDSeq)
	if err != nil {
		return nil, err
	}

	repo := &QueueRepository{
		backend:     backend,
		idSeq:       idSeq,
		maxRetries:  defaultMaxRetries,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// Close releases the ID sequence.
func (r *QueueRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *QueueRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Enqueue persists a new entry in the queued state.
func (r *QueueRepository) Enqueue(ctx context.Context, entry *core.QueueEntry) (*core.QueueEntry, error) {
	if err := core.ValidateContentItem(&entry.Item); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		entry.Id = core.ID(nextID)

		now := time.Now().UTC()
		entry.Status = core.StatusQueued
		entry.CreatedAt = now
		entry.UpdatedAt = now
		entry.NextRetryAt = time.Time{}
		entry.CompletedAt = time.Time{}
		entry.RetryCount = 0
		entry.ClaimedBy = ""
		if entry.Priority == 0 {
			entry.Priority = entry.Item.Priority
		}
		if entry.Priority == 0 {
			entry.Priority = defaultPriority
		}
		if entry.MaxRetries == 0 {
			entry.MaxRetries = r.maxRetries
		}
		if entry.Item.SubmittedAt.IsZero() {
			entry.Item.SubmittedAt = now
		}

		if err := core.ValidateQueueEntry(entry); err != nil {
			return err
		}

		if err := tx.Set(makeQueueEntryKey(entry.Id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}

		readyKey := makeQueueReadyKey(entry.Priority, entry.CreatedAt, entry.Id)
		if err := tx.Set(readyKey, storage.MarshalID(entry.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClaimNext atomically claims the ready entry with the highest priority,
// oldest first within a priority.
func (r *QueueRepository) ClaimNext(ctx context.Context, workerID string) (*core.QueueEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var claimed *core.QueueEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()

		readyKey, entry, err := findReadyEntry(tx, now)
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}

		entry.Status = core.StatusProcessing
		entry.ClaimedBy = workerID
		entry.UpdatedAt = now

		if err := tx.Delete(readyKey); err != nil {
			return err
		}
		if err := tx.Set(makeQueueEntryKey(entry.Id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			if errors.Is(err, badger.ErrConflict) {
				return storage.ErrClaimConflict
			}
			return err
		}

		claimed = entry
		return nil
	}, true)

	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// findReadyEntry scans the ready index in claim order and returns the
// index key and entry of the first claimable candidate, or nils when the
// queue is drained. The iterator is closed before the caller commits.
func findReadyEntry(tx *badger.Txn, now time.Time) ([]byte, *core.QueueEntry, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(queueReadyPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, nil, err
		}

		entry, err := readQueueEntry(tx, makeQueueEntryKey(id))
		if err != nil {
			return nil, nil, err
		}
		if entry == nil || !entry.Ready(now) {
			// Entries waiting out a retry backoff keep their index key
			// and are skipped until NextRetryAt passes.
			continue
		}

		return iter.Item().KeyCopy(nil), entry, nil
	}
	return nil, nil, nil
}

// MarkCompleted moves a processing entry to completed.
func (r *QueueRepository) MarkCompleted(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := readQueueEntry(tx, makeQueueEntryKey(id))
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}
		if entry.Status != core.StatusProcessing {
			return storage.ErrInvalidTransition
		}

		now := time.Now().UTC()
		entry.Status = core.StatusCompleted
		entry.UpdatedAt = now
		entry.CompletedAt = now

		if err := tx.Set(makeQueueEntryKey(id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MarkFailed records a failure for a processing entry, requeueing it with
// exponential backoff while retries remain.
func (r *QueueRepository) MarkFailed(ctx context.Context, id core.ID, cause string, permanent bool) (*core.QueueEntry, error) {
	var updated *core.QueueEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := readQueueEntry(tx, makeQueueEntryKey(id))
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}
		if entry.Status != core.StatusProcessing {
			return storage.ErrInvalidTransition
		}

		now := time.Now().UTC()
		entry.LastError = cause
		entry.UpdatedAt = now
		entry.ClaimedBy = ""

		if !permanent && entry.RetryCount < entry.MaxRetries {
			entry.RetryCount++
			entry.Status = core.StatusQueued
			entry.NextRetryAt = now.Add(r.backoffDelay(entry.RetryCount))

			// The index key keeps the original creation time, so a retried
			// entry does not jump ahead of its peers.
			readyKey := makeQueueReadyKey(entry.Priority, entry.CreatedAt, entry.Id)
			if err := tx.Set(readyKey, storage.MarshalID(entry.Id)); err != nil {
				return err
			}
		} else {
			entry.Status = core.StatusFailed
			entry.CompletedAt = now
		}

		if err := tx.Set(makeQueueEntryKey(id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		updated = entry
		return nil
	}, true)

	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel withdraws an entry that is still queued.
func (r *QueueRepository) Cancel(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := readQueueEntry(tx, makeQueueEntryKey(id))
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}
		if entry.Status != core.StatusQueued {
			return storage.ErrInvalidTransition
		}

		now := time.Now().UTC()
		entry.Status = core.StatusCancelled
		entry.UpdatedAt = now
		entry.CompletedAt = now

		readyKey := makeQueueReadyKey(entry.Priority, entry.CreatedAt, entry.Id)
		if err := tx.Delete(readyKey); err != nil {
			return err
		}
		if err := tx.Set(makeQueueEntryKey(id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Reset returns a terminally failed entry to queued with a fresh retry
// budget. The last error is kept for the audit trail.
func (r *QueueRepository) Reset(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := readQueueEntry(tx, makeQueueEntryKey(id))
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}
		if entry.Status != core.StatusFailed {
			return storage.ErrInvalidTransition
		}

		entry.Status = core.StatusQueued
		entry.RetryCount = 0
		entry.NextRetryAt = time.Time{}
		entry.CompletedAt = time.Time{}
		entry.UpdatedAt = time.Now().UTC()

		readyKey := makeQueueReadyKey(entry.Priority, entry.CreatedAt, entry.Id)
		if err := tx.Set(readyKey, storage.MarshalID(entry.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeQueueEntryKey(id), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by ID.
func (r *QueueRepository) GetEntry(ctx context.Context, id core.ID) (*core.QueueEntry, error) {
	var result *core.QueueEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readQueueEntry(tx, makeQueueEntryKey(id))
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

// ListEntries returns entries newest first, filtered by tenant and status.
// A zero limit means no limit.
func (r *QueueRepository) ListEntries(ctx context.Context, tenantID string, status core.QueueStatus, limit int) ([]*core.QueueEntry, error) {
	var results []*core.QueueEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(queueEntryPrefix + ":")

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Ids grow over time, so a reverse scan over the BigEndian id
		// suffix yields newest entries first.
		seekKey := append(append([]byte{}, prefix...), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)

		for iter.Seek(seekKey); iter.Valid(); iter.Next() {
			entry, err := valueQueueEntry(iter.Item())
			if err != nil {
				return err
			}
			if tenantID != "" && entry.Item.TenantId != tenantID {
				continue
			}
			if status != 0 && entry.Status != status {
				continue
			}
			results = append(results, entry)
			if limit > 0 && len(results) >= limit {
				return nil
			}
		}
		return nil
	}, false)
	return results, err
}

// Helper methods

// backoffDelay computes the exponential delay before the given retry.
func (r *QueueRepository) backoffDelay(retryCount int) time.Duration {
	delay := r.backoffBase
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= r.backoffCap {
			return r.backoffCap
		}
	}
	if delay > r.backoffCap {
		return r.backoffCap
	}
	return delay
}

// readQueueEntry reads a queue entry from the transaction.
func readQueueEntry(tx *badger.Txn, key []byte) (*core.QueueEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	return valueQueueEntry(item)
}

// valueQueueEntry decodes a queue entry from an item's value.
func valueQueueEntry(item *badger.Item) (*core.QueueEntry, error) {
	var entry *core.QueueEntry
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalQueueEntry(val)
		return unmarshalErr
	})
	return entry, err
}
