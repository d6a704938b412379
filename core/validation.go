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


package core

import (
	"fmt"
	"time"
)

// ValidateContentItem validates a ContentItem according to domain rules.
//
// Validation rules:
//   - TenantId must not be empty
//   - SourceType must not be empty
//   - SourceId must not be empty
//   - Priority must be 0 (default) or within 1-10
//   - SubmittedAt must not be in the future
//
// NOT validated:
//   - Text (empty content is accepted and yields zero chunks)
//   - Title and Metadata (optional)
func ValidateContentItem(item *ContentItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidContentItem)
	}

	if item.TenantId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrEmptyTenant)
	}

	if item.SourceType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrEmptySourceType)
	}

	if item.SourceId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrEmptySourceId)
	}

	if item.Priority != 0 {
		if err := ValidatePriority(item.Priority); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidContentItem, err)
		}
	}

	if !IsValidTimestamp(item.SubmittedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateEpisode validates an Episode according to domain rules.
//
// Validation rules:
//   - TenantId must not be empty
//   - DocumentId must not be empty
//   - Version must be positive
//
// NOT validated (populated by the graph backend):
//   - Entities (empty until extraction runs)
//   - Summary (optional)
func ValidateEpisode(ep *Episode) error {
	if ep == nil {
		return fmt.Errorf("%w: episode is nil", ErrInvalidEpisode)
	}

	if ep.TenantId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrEmptyTenant)
	}

	if ep.DocumentId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrEmptyDocumentId)
	}

	if ep.Version < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrInvalidVersion)
	}

	return nil
}

// ValidateEntity validates an Entity according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Type must not be empty
//
// NOT validated:
//   - Id (derived from the (Type, Name) tuple before storage)
func ValidateEntity(entity *Entity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}

	if entity.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyEntityName)
	}

	if entity.Type == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyEntityType)
	}

	return nil
}

// ValidateRelation validates a Relation according to domain rules.
//
// Validation rules:
//   - TenantId must not be empty
//   - FromId and ToId must be non-zero
//   - Verb must not be empty
func ValidateRelation(rel *Relation) error {
	if rel == nil {
		return fmt.Errorf("%w: relation is nil", ErrInvalidRelation)
	}

	if rel.TenantId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRelation, ErrEmptyTenant)
	}

	if rel.FromId == 0 || rel.ToId == 0 {
		return fmt.Errorf("%w: endpoint ids must be non-zero", ErrInvalidRelation)
	}

	if rel.Verb == "" {
		return fmt.Errorf("%w: verb cannot be empty", ErrInvalidRelation)
	}

	return nil
}

// ValidateQueueEntry validates a QueueEntry according to domain rules.
//
// Validation rules:
//   - Item must pass ValidateContentItem
//   - Priority must be within 1-10
//   - Status must be a known status value
func ValidateQueueEntry(entry *QueueEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidQueueEntry)
	}

	if err := ValidateContentItem(&entry.Item); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQueueEntry, err)
	}

	if err := ValidatePriority(entry.Priority); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQueueEntry, err)
	}

	if err := ValidateStatus(entry.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQueueEntry, err)
	}

	return nil
}

// ValidatePriority validates that a priority is within the 1-10 range.
func ValidatePriority(priority int) error {
	if priority < 1 || priority > 10 {
		return fmt.Errorf("%w: value %d", ErrInvalidPriority, priority)
	}
	return nil
}

// ValidateStatus validates that a QueueStatus has a valid value.
func ValidateStatus(status QueueStatus) error {
	if status < StatusQueued || status > StatusCancelled {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
// The zero time is valid; it is filled in at enqueue.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
