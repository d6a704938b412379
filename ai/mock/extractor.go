package mock

import (
	"context"
	"strings"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
)

// MockEntityExtractor is a test double for ai.EntityExtractor.
// It allows custom behavior injection via function fields.
type MockEntityExtractor struct {
	// ExtractEntitiesFunc is called by ExtractEntities if set.
	// If nil, uses default simple word extraction.
	ExtractEntitiesFunc func(ctx context.Context, text string) (*ai.Extraction, error)

	callCount int
}

// NewMockEntityExtractor creates a mock entity extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{}
}

// ExtractEntities extracts simple mock entities from text.
// Default behavior: creates entities from the first few words and one relation
// linking the first two entities.
func (m *MockEntityExtractor) ExtractEntities(ctx context.Context, text string) (*ai.Extraction, error) {
	m.callCount++

	if m.ExtractEntitiesFunc != nil {
		return m.ExtractEntitiesFunc(ctx, text)
	}

	// Default: extract simple entities from words
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return &ai.Extraction{}, nil
	}

	seen := make(map[string]bool, len(words))
	entities := make([]ai.ExtractedEntity, 0, 5)
	salience := 10
	for _, word := range words {
		if len(entities) >= 5 { // Limit to 5 entities
			break
		}

		// Clean the word
		word = strings.Trim(word, ".,!?;:\"'()[]{}—–-")
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true

		// Assign a simple type
		entityType := "abstract_concept"
		if len(word) > 5 {
			entityType = "thing"
		}

		entities = append(entities, ai.ExtractedEntity{
			Name:     word,
			Type:     entityType,
			Salience: salience,
		})

		// Decrease salience for each subsequent entity
		if salience > 1 {
			salience--
		}
	}

	// Give graph tests an edge to work with without injection.
	var relations []ai.ExtractedRelation
	if len(entities) >= 2 {
		relations = append(relations, ai.ExtractedRelation{
			From: entities[0].Name,
			To:   entities[1].Name,
			Verb: "relates to",
		})
	}

	return &ai.Extraction{
		Entities:  entities,
		Relations: relations,
	}, nil
}

// CallCount returns the number of times ExtractEntities was called.
func (m *MockEntityExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockEntityExtractor) Reset() {
	m.callCount = 0
	m.ExtractEntitiesFunc = nil
}
