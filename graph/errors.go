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


package graph

import "errors"

var (
	// ErrRepositoryRequired is returned when a graph repository is not provided.
	ErrRepositoryRequired = errors.New("graph repository required")

	// ErrExtractorRequired is returned when an entity extractor is not provided.
	ErrExtractorRequired = errors.New("entity extractor required")
)
