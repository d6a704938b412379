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

import "errors"

// Domain validation errors
var (
	// ErrInvalidContentItem indicates a ContentItem failed validation.
	ErrInvalidContentItem = errors.New("invalid content item")

	// ErrInvalidEpisode indicates an Episode failed validation.
	ErrInvalidEpisode = errors.New("invalid episode")

	// ErrInvalidEntity indicates an Entity failed validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidQueueEntry indicates a QueueEntry failed validation.
	ErrInvalidQueueEntry = errors.New("invalid queue entry")

	// ErrInvalidRelation indicates a Relation failed validation.
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyTenant indicates the TenantId field is empty.
	ErrEmptyTenant = errors.New("tenant id cannot be empty")

	// ErrEmptySourceType indicates the SourceType field is empty.
	ErrEmptySourceType = errors.New("source type cannot be empty")

	// ErrEmptySourceId indicates the SourceId field is empty.
	ErrEmptySourceId = errors.New("source id cannot be empty")

	// ErrEmptyDocumentId indicates the DocumentId field is empty.
	ErrEmptyDocumentId = errors.New("document id cannot be empty")

	// ErrEmptyEntityName indicates the entity Name field is empty.
	ErrEmptyEntityName = errors.New("entity name cannot be empty")

	// ErrEmptyEntityType indicates the entity Type field is empty.
	ErrEmptyEntityType = errors.New("entity type cannot be empty")

	// ErrInvalidPriority indicates a priority outside the 1-10 range.
	ErrInvalidPriority = errors.New("priority must be between 1 and 10")

	// ErrInvalidVersion indicates a non-positive version number.
	ErrInvalidVersion = errors.New("version must be positive")

	// ErrInvalidStatus indicates an invalid QueueStatus value.
	ErrInvalidStatus = errors.New("invalid queue status")

	// ErrInvalidEncoding indicates text that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("content is not valid UTF-8")
)
