package mock

import "context"

// MockBoundaryDetector is a test double for ai.BoundaryDetector.
// It allows custom behavior injection via function fields.
type MockBoundaryDetector struct {
	// DetectBoundariesFunc is called by DetectBoundaries if set.
	// If nil, uses default deterministic behavior.
	DetectBoundariesFunc func(ctx context.Context, fragments []string) ([]int, error)

	// Every controls the default behavior: a boundary before every Every-th
	// fragment. Defaults to 3 when zero.
	Every int

	callCount int
}

// NewMockBoundaryDetector creates a mock boundary detector with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockBoundaryDetector().
func NewMockBoundaryDetector() *MockBoundaryDetector {
	return &MockBoundaryDetector{}
}

// DetectBoundaries returns deterministic boundaries.
// Default behavior: a boundary at every third fragment.
func (m *MockBoundaryDetector) DetectBoundaries(ctx context.Context, fragments []string) ([]int, error) {
	m.callCount++

	if m.DetectBoundariesFunc != nil {
		return m.DetectBoundariesFunc(ctx, fragments)
	}

	every := m.Every
	if every <= 0 {
		every = 3
	}

	boundaries := make([]int, 0, len(fragments)/every)
	for i := every; i < len(fragments); i += every {
		boundaries = append(boundaries, i)
	}
	return boundaries, nil
}

// CallCount returns the number of times DetectBoundaries was called.
func (m *MockBoundaryDetector) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockBoundaryDetector) Reset() {
	m.callCount = 0
	m.DetectBoundariesFunc = nil
}
