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


package search

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when no chunk repository is provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrGraphBackendRequired is returned when no graph backend is provided.
	ErrGraphBackendRequired = errors.New("graph backend required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrAllStoresFailed is returned when neither store could answer.
	ErrAllStoresFailed = errors.New("all stores failed")
)
