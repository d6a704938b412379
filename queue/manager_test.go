package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ingestion"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage/badger"
)

// stubProcessor counts calls and answers with fn, or a fixed success.
type stubProcessor struct {
	mu    sync.Mutex
	calls int
	fn    func(entry *core.QueueEntry) (*ingestion.Result, error)
}

func (s *stubProcessor) Process(ctx context.Context, entry *core.QueueEntry) (*ingestion.Result, error) {
	s.mu.Lock()
	s.calls++
	fn := s.fn
	s.mu.Unlock()

	if fn != nil {
		return fn(entry)
	}
	return &ingestion.Result{Outcome: ingestion.OutcomeFirstVersion, Version: 1, ChunkCount: 1}, nil
}

func (s *stubProcessor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func setupManager(t *testing.T, proc Processor, opts ...Option) (*Manager, *badger.Stores) {
	t.Helper()

	stores, err := badger.NewMemoryStores(badger.WithBackoff(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	opts = append([]Option{WithPollInterval(10 * time.Millisecond)}, opts...)
	manager, err := NewManager(stores.Queue, proc, opts...)
	require.NoError(t, err)
	t.Cleanup(manager.Release)

	return manager, stores
}

func enqueueNote(t *testing.T, stores *badger.Stores, sourceID string) *core.QueueEntry {
	t.Helper()

	entry, err := stores.Queue.Enqueue(context.Background(), &core.QueueEntry{
		Item: core.ContentItem{
			TenantId:   "tenant-a",
			SourceType: core.SourceTypeNote,
			SourceId:   sourceID,
			Text:       "hello",
		},
	})
	require.NoError(t, err)
	return entry
}

func waitForStatus(t *testing.T, repo storage.QueueRepository, id core.ID, status core.QueueStatus) *core.QueueEntry {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		entry, err := repo.GetEntry(context.Background(), id)
		require.NoError(t, err)
		if entry.Status == status {
			return entry
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("entry %d never reached status %s", id, status)
	return nil
}

func TestNewManager_Validation(t *testing.T) {
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	t.Run("nil queue", func(t *testing.T) {
		manager, err := NewManager(nil, &stubProcessor{})
		assert.Nil(t, manager)
		assert.ErrorIs(t, err, ErrQueueRepositoryRequired)
	})

	t.Run("nil processor", func(t *testing.T) {
		manager, err := NewManager(stores.Queue, nil)
		assert.Nil(t, manager)
		assert.ErrorIs(t, err, ErrProcessorRequired)
	})
}

func TestManager_CompletesEntry(t *testing.T) {
	proc := &stubProcessor{}
	manager, stores := setupManager(t, proc)

	entry := enqueueNote(t, stores, "note-1")
	require.NoError(t, manager.Start(context.Background()))

	completed := waitForStatus(t, stores.Queue, entry.Id, core.StatusCompleted)
	manager.Stop()

	assert.Equal(t, 1, proc.callCount())
	assert.False(t, completed.CompletedAt.IsZero())
	assert.True(t, strings.HasPrefix(completed.ClaimedBy, "worker-"))
}

func TestManager_RequeuesRetryableFailure(t *testing.T) {
	proc := &stubProcessor{}
	proc.fn = func(entry *core.QueueEntry) (*ingestion.Result, error) {
		if proc.callCount() == 1 {
			return nil, ingestion.ErrGraphBackend
		}
		return &ingestion.Result{Outcome: ingestion.OutcomeFirstVersion, Version: 1}, nil
	}
	manager, stores := setupManager(t, proc)

	entry := enqueueNote(t, stores, "note-1")
	require.NoError(t, manager.Start(context.Background()))

	completed := waitForStatus(t, stores.Queue, entry.Id, core.StatusCompleted)
	manager.Stop()

	assert.Equal(t, 2, proc.callCount())
	assert.Equal(t, 1, completed.RetryCount)
	assert.Contains(t, completed.LastError, "graph backend")
}

func TestManager_PermanentFailureIsTerminal(t *testing.T) {
	proc := &stubProcessor{}
	proc.fn = func(entry *core.QueueEntry) (*ingestion.Result, error) {
		return nil, ingestion.ErrHashComputation
	}
	manager, stores := setupManager(t, proc)

	entry := enqueueNote(t, stores, "note-1")
	require.NoError(t, manager.Start(context.Background()))

	failed := waitForStatus(t, stores.Queue, entry.Id, core.StatusFailed)
	manager.Stop()

	// No retry budget is spent on a permanent fault.
	assert.Equal(t, 1, proc.callCount())
	assert.Equal(t, 0, failed.RetryCount)
	assert.Contains(t, failed.LastError, "hash")
	assert.False(t, failed.CompletedAt.IsZero())
}

func TestManager_ExhaustsRetryBudget(t *testing.T) {
	proc := &stubProcessor{}
	proc.fn = func(entry *core.QueueEntry) (*ingestion.Result, error) {
		return nil, errors.New("store unavailable")
	}
	manager, stores := setupManager(t, proc)

	entry := enqueueNote(t, stores, "note-1")
	require.NoError(t, manager.Start(context.Background()))

	failed := waitForStatus(t, stores.Queue, entry.Id, core.StatusFailed)
	manager.Stop()

	assert.Equal(t, failed.MaxRetries, failed.RetryCount)
	assert.Equal(t, failed.MaxRetries+1, proc.callCount())
}

func TestManager_ProcessesInPriorityOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string

	proc := &stubProcessor{}
	proc.fn = func(entry *core.QueueEntry) (*ingestion.Result, error) {
		mu.Lock()
		order = append(order, entry.Item.SourceId)
		mu.Unlock()
		return &ingestion.Result{Outcome: ingestion.OutcomeFirstVersion, Version: 1}, nil
	}
	// One worker, so completion order is claim order.
	manager, stores := setupManager(t, proc, WithWorkers(1))

	low, err := stores.Queue.Enqueue(context.Background(), &core.QueueEntry{
		Item: core.ContentItem{
			TenantId:   "tenant-a",
			SourceType: core.SourceTypeNote,
			SourceId:   "low",
			Priority:   2,
		},
	})
	require.NoError(t, err)
	urgent, err := stores.Queue.Enqueue(context.Background(), &core.QueueEntry{
		Item: core.ContentItem{
			TenantId:   "tenant-a",
			SourceType: core.SourceTypeNote,
			SourceId:   "urgent",
			Priority:   9,
		},
	})
	require.NoError(t, err)

	require.NoError(t, manager.Start(context.Background()))
	waitForStatus(t, stores.Queue, low.Id, core.StatusCompleted)
	waitForStatus(t, stores.Queue, urgent.Id, core.StatusCompleted)
	manager.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"urgent", "low"}, order)
}

func TestManager_StartStop(t *testing.T) {
	manager, _ := setupManager(t, &stubProcessor{})

	require.NoError(t, manager.Start(context.Background()))
	assert.ErrorIs(t, manager.Start(context.Background()), ErrAlreadyRunning)

	manager.Stop()
	manager.Stop() // idempotent

	require.NoError(t, manager.Start(context.Background()))
	manager.Stop()
}
