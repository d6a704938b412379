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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// EntityExtractor implements ai.EntityExtractor using OpenAI-compatible chat APIs.
type EntityExtractor struct {
	client      llms.Model
	minSalience int
	logger      *slog.Logger
}

// entity is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type entity struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Salience int    `json:"salience"`
}

// relation is an internal type used for JSON unmarshaling.
type relation struct {
	From string `json:"from"`
	To   string `json:"to"`
	Verb string `json:"verb"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Entities  []entity   `json:"entities"`
	Relations []relation `json:"relations"`
}

// newEntityExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEntityExtractor(config *ai.Config) (*EntityExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &EntityExtractor{
		client:      client,
		minSalience: config.MinSalience,
		logger:      slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewEntityExtractor creates a new entity extractor using the provided configuration.
//
// Returns ai.EntityExtractor interface to enforce abstraction.
func NewEntityExtractor(config *ai.Config) (ai.EntityExtractor, error) {
	return newEntityExtractor(config)
}

// ExtractEntities extracts named entities and their relations from text using an LLM.
// Entities below the minimum salience threshold are dropped, along with any
// relation whose endpoints did not survive the filter.
func (e *EntityExtractor) ExtractEntities(ctx context.Context, text string) (*ai.Extraction, error) {
	// Scrub input text
	text = scrubString(text)

	// Build the system and user prompts
	systemPrompt := buildExtractionPrompt()
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result extraction
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return &ai.Extraction{}, nil
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extraction response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extraction response after retries", "err", lastErr)
		return nil, lastErr
	}

	// Filter by salience and convert to ai.ExtractedEntity
	kept := make(map[string]bool, len(result.Entities))
	entities := make([]ai.ExtractedEntity, 0, len(result.Entities))
	for _, ent := range result.Entities {
		name := strings.ToLower(strings.TrimSpace(ent.Name))
		if name == "" || ent.Salience < e.minSalience || kept[name] {
			continue
		}
		kept[name] = true
		entities = append(entities, ai.ExtractedEntity{
			Name:     name,
			Type:     strings.ReplaceAll(ent.Type, " ", "_"),
			Salience: ent.Salience,
		})
	}

	// Sort by salience (descending)
	slices.SortFunc(entities, func(a, b ai.ExtractedEntity) int {
		if a.Salience == b.Salience {
			return 0
		}
		if a.Salience < b.Salience {
			return 1
		}
		return -1
	})

	// Keep only relations whose endpoints survived the salience filter.
	relations := make([]ai.ExtractedRelation, 0, len(result.Relations))
	for _, rel := range result.Relations {
		from := strings.ToLower(strings.TrimSpace(rel.From))
		to := strings.ToLower(strings.TrimSpace(rel.To))
		if from == to || !kept[from] || !kept[to] {
			continue
		}
		verb := strings.ToLower(strings.TrimSpace(rel.Verb))
		if verb == "" {
			continue
		}
		relations = append(relations, ai.ExtractedRelation{
			From: from,
			To:   to,
			Verb: verb,
		})
	}

	e.logger.Debug("extracted entities",
		"total", len(result.Entities),
		"filtered", len(entities),
		"relations", len(relations))

	return &ai.Extraction{
		Entities:  entities,
		Relations: relations,
	}, nil
}
