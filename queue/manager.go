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


package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/ingestion"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

const (
	// DefaultWorkers is the size of the processing pool.
	DefaultWorkers = 2

	// DefaultPollInterval is how often an idle manager checks for work.
	DefaultPollInterval = 5 * time.Second
)

// Processor runs one claimed entry through the ingestion chain.
// *ingestion.Pipeline satisfies it.
type Processor interface {
	Process(ctx context.Context, entry *core.QueueEntry) (*ingestion.Result, error)
}

// Manager polls the queue and fans claimed entries out to a worker pool.
// Each entry runs its whole chain on one worker; entries across workers
// run in parallel.
type Manager struct {
	queue     storage.QueueRepository
	processor Processor
	pool      *ants.Pool
	workers   int
	interval  time.Duration
	workerID  string
	logger    *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	inFlight sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager) error

// WithWorkers sets the worker pool size.
// Default is DefaultWorkers, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(m *Manager) error {
		if n < 1 {
			n = 1
		}
		m.workers = n
		return nil
	}
}

// WithPollInterval sets how often an idle manager polls for ready entries.
// Non-positive values keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) error {
		if d > 0 {
			m.interval = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a queue manager over the given repository and
// processor. The manager carries one worker identity, recorded on every
// entry it claims.
func NewManager(queue storage.QueueRepository, processor Processor, opts ...Option) (*Manager, error) {
	if queue == nil {
		return nil, ErrQueueRepositoryRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}

	m := &Manager{
		queue:     queue,
		processor: processor,
		workers:   DefaultWorkers,
		interval:  DefaultPollInterval,
		workerID:  "worker-" + uuid.NewString(),
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "queue")

	pool, err := ants.NewPool(m.workers)
	if err != nil {
		return nil, err
	}
	m.pool = pool

	return m, nil
}

// Start launches the polling loop and returns immediately. Processing
// continues until Stop is called or ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(loopCtx)
	m.logger.Info("queue manager started",
		"worker", m.workerID,
		"workers", m.workers,
		"interval", m.interval,
	)
	return nil
}

// Stop halts polling and waits for in-flight entries to finish. The
// manager can be started again afterwards.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.inFlight.Wait()
	m.logger.Info("queue manager stopped")
}

// Release frees the worker pool. The manager must not be used afterwards.
func (m *Manager) Release() {
	m.Stop()
	m.pool.Release()
}

// loop polls on a timer. The first pass runs immediately so a restart
// drains backlog without waiting out an interval.
func (m *Manager) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.dispatch(ctx)
		}
	}
}

// dispatch claims ready entries while idle workers remain, handing each
// to the pool.
func (m *Manager) dispatch(ctx context.Context) {
	for m.pool.Free() > 0 {
		if ctx.Err() != nil {
			return
		}

		entry, err := m.queue.ClaimNext(ctx, m.workerID)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				// Queue drained.
				return
			case errors.Is(err, storage.ErrClaimConflict):
				// Another worker won the race; try the next entry.
				continue
			default:
				m.logger.Warn("claiming entry", "err", err)
				return
			}
		}

		m.inFlight.Add(1)
		if err := m.pool.Submit(func() {
			defer m.inFlight.Done()
			m.handle(entry)
		}); err != nil {
			m.inFlight.Done()
			// Hand the claim back so the entry is not stranded in
			// processing while no worker can take it.
			if _, markErr := m.queue.MarkFailed(ctx, entry.Id, "worker pool unavailable", false); markErr != nil {
				m.logger.Error("requeueing unsubmitted entry", "err", markErr, "entry", uint64(entry.Id))
			}
			m.logger.Error("submitting entry to pool", "err", err)
			return
		}
	}
}

// handle runs one entry to completion and records the outcome. It runs
// detached from the polling context so shutdown lets in-flight entries
// finish.
func (m *Manager) handle(entry *core.QueueEntry) {
	ctx := context.Background()
	logger := m.logger.With(
		"entry", uint64(entry.Id),
		"tenant", entry.Item.TenantId,
		"document", entry.Item.DocumentID(),
	)

	result, err := m.processor.Process(ctx, entry)
	if err != nil {
		permanent := !ingestion.IsRetryable(err)
		updated, markErr := m.queue.MarkFailed(ctx, entry.Id, err.Error(), permanent)
		if markErr != nil {
			logger.Error("recording failure", "err", markErr, "cause", err)
			return
		}
		if updated.Status == core.StatusFailed {
			logger.Error("entry failed terminally", "err", err, "retries", updated.RetryCount)
		} else {
			logger.Warn("entry failed, requeued",
				"err", err,
				"retry", updated.RetryCount,
				"next_retry_at", updated.NextRetryAt,
			)
		}
		return
	}

	if err := m.queue.MarkCompleted(ctx, entry.Id); err != nil {
		logger.Error("recording completion", "err", err)
		return
	}
	logger.Info("entry completed",
		"outcome", result.Outcome.String(),
		"version", result.Version,
		"chunks", result.ChunkCount,
	)
}
