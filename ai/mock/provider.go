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


package mock

import "github.com/systemccg/flourisha-00-ai-brain-sub006/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, boundary detector and extractor instances.
type MockProvider struct {
	embedder   *MockEmbedder
	boundaries *MockBoundaryDetector
	extractor  *MockEntityExtractor
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockBoundaryDetector()/GetMockExtractor() to access
// concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		boundaries: NewMockBoundaryDetector(),
		extractor:  NewMockEntityExtractor(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, boundaries *MockBoundaryDetector, extractor *MockEntityExtractor) ai.AIProvider {
	return &MockProvider{
		embedder:   embedder,
		boundaries: boundaries,
		extractor:  extractor,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// BoundaryDetector returns the mock boundary detector.
func (p *MockProvider) BoundaryDetector() ai.BoundaryDetector {
	return p.boundaries
}

// EntityExtractor returns the mock entity extractor.
func (p *MockProvider) EntityExtractor() ai.EntityExtractor {
	return p.extractor
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockBoundaryDetector returns the underlying mock boundary detector for test assertions.
func (p *MockProvider) GetMockBoundaryDetector() *MockBoundaryDetector {
	return p.boundaries
}

// GetMockExtractor returns the underlying mock extractor for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockExtractor() *MockEntityExtractor {
	return p.extractor
}
