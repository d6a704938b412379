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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// Outcome is the version gate's verdict for one submission.
type Outcome int

const (
	// OutcomeSkip means the content hash matches the current version;
	// nothing is stored and no downstream stage runs.
	OutcomeSkip Outcome = iota + 1
	// OutcomeFirstVersion means the document is being ingested at
	// version 1.
	OutcomeFirstVersion
	// OutcomeNewVersion means the content changed and a later version
	// number was allocated.
	OutcomeNewVersion
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkip:
		return "skip"
	case OutcomeFirstVersion:
		return "first_version"
	case OutcomeNewVersion:
		return "new_version"
	default:
		return "unknown"
	}
}

// Decision carries the gate's outcome together with the content hash and
// the version number the pipeline operates on. On a skip, Version names
// the current version that already holds the content.
type Decision struct {
	Outcome Outcome
	Version int
	Hash    string
}

// VersionManager gates ingestion on the content hash and owns version row
// allocation. It never promotes a version; promotion happens only after
// every downstream stage succeeded.
type VersionManager struct {
	versions storage.VersionRepository
	logger   *slog.Logger
}

// NewVersionManager creates a version manager.
// A nil logger falls back to slog.Default().
func NewVersionManager(versions storage.VersionRepository, logger *slog.Logger) (*VersionManager, error) {
	if versions == nil {
		return nil, ErrVersionRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VersionManager{
		versions: versions,
		logger:   logger.With("component", "versions"),
	}, nil
}

// Decide hashes the item's normalized text and compares it with the
// document's stored versions.
//
// Outcomes:
//   - the hash matches the current version: Skip, nothing written
//   - the hash matches the latest version but that version was never
//     promoted: the earlier attempt's row is reused so a retry converges
//     on the same version number
//   - otherwise: the next version number is allocated and its row
//     inserted with IsCurrent=false
//
// A row already holding a different hash at the allocated number means
// two producers raced on the same document; that surfaces as
// storage.ErrVersionConflict and is never retried.
func (m *VersionManager) Decide(ctx context.Context, item *core.ContentItem) (*Decision, error) {
	if item.TenantId == "" {
		return nil, fmt.Errorf("%w: %w", ErrHashComputation, core.ErrEmptyTenant)
	}
	if item.SourceId == "" {
		return nil, fmt.Errorf("%w: %w", ErrHashComputation, core.ErrEmptyDocumentId)
	}
	documentID := item.DocumentID()

	hash, err := core.HashContent(item.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHashComputation, err)
	}

	current, err := m.versions.CurrentVersion(ctx, item.TenantId, documentID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("reading current version: %w", err)
	}
	if current != nil && current.ContentHash == hash {
		m.logger.Debug("content unchanged",
			"tenantID", item.TenantId,
			"documentID", documentID,
			"version", current.Version)
		return &Decision{Outcome: OutcomeSkip, Version: current.Version, Hash: hash}, nil
	}

	latest, err := m.versions.LatestVersion(ctx, item.TenantId, documentID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("reading latest version: %w", err)
	}

	next := 1
	if latest != nil {
		if latest.ContentHash == hash && !latest.IsCurrent && !latest.IsDeleted {
			// An earlier attempt wrote this row but never promoted it.
			return m.register(ctx, item, latest.Version, hash)
		}
		next = latest.Version + 1
	}
	return m.register(ctx, item, next, hash)
}

// register inserts the version row and shapes the outcome.
func (m *VersionManager) register(ctx context.Context, item *core.ContentItem, version int, hash string) (*Decision, error) {
	row := &core.DocumentVersion{
		TenantId:    item.TenantId,
		DocumentId:  item.DocumentID(),
		Version:     version,
		ContentHash: hash,
		Title:       item.Title,
		SourceType:  item.SourceType,
		ProjectId:   item.ProjectId,
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.versions.InsertVersion(ctx, row); err != nil {
		return nil, fmt.Errorf("inserting version %d: %w", version, err)
	}

	m.logger.Debug("version allocated",
		"tenantID", item.TenantId,
		"documentID", row.DocumentId,
		"version", version)

	outcome := OutcomeNewVersion
	if version == 1 {
		outcome = OutcomeFirstVersion
	}
	return &Decision{Outcome: outcome, Version: version, Hash: hash}, nil
}
