package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// BoundaryDetector implements ai.BoundaryDetector using OpenAI-compatible chat APIs.
type BoundaryDetector struct {
	client llms.Model
	logger *slog.Logger
}

// breaks is the wrapper structure for the LLM's JSON response.
type breaks struct {
	Boundaries []int `json:"boundaries"`
}

// newBoundaryDetector is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newBoundaryDetector(config *ai.Config) (*BoundaryDetector, error) {
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

	return &BoundaryDetector{
		client: client,
		logger: slog.Default().With("component", "openai-boundaries"),
	}, nil
}

// NewBoundaryDetector creates a new boundary detector using the provided configuration.
//
// Returns ai.BoundaryDetector interface to enforce abstraction.
func NewBoundaryDetector(config *ai.Config) (ai.BoundaryDetector, error) {
	return newBoundaryDetector(config)
}

// DetectBoundaries asks the LLM which fragments begin a new topical section.
// Model output is sanitized: out-of-range and duplicate indexes are dropped
// rather than treated as failures, so a partially valid answer is still used.
func (d *BoundaryDetector) DetectBoundaries(ctx context.Context, fragments []string) ([]int, error) {
	if len(fragments) < 2 {
		// A single fragment has no interior break points.
		return nil, nil
	}

	systemPrompt := buildBoundaryPrompt()
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
				llms.TextPart(numberFragments(fragments)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result breaks
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := d.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			d.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			d.logger.Debug("no choices returned from model")
			return nil, nil
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			d.logger.Warn("error parsing boundary response",
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
		d.logger.Error("failed to parse boundary response after retries", "err", lastErr)
		return nil, lastErr
	}

	cleaned := sanitizeBoundaries(result.Boundaries, len(fragments))
	d.logger.Debug("detected boundaries",
		"fragments", len(fragments),
		"returned", len(result.Boundaries),
		"kept", len(cleaned))
	return cleaned, nil
}

// numberFragments renders fragments as a numbered list for the prompt.
// Long fragments are truncated; judging topic shifts does not need full text.
func numberFragments(fragments []string) string {
	var b strings.Builder
	for i, frag := range fragments {
		b.WriteString(strconv.Itoa(i))
		b.WriteString(": ")
		b.WriteString(truncateRunes(strings.Join(strings.Fields(frag), " "), 240))
		b.WriteByte('\n')
	}
	return b.String()
}

// sanitizeBoundaries sorts, dedupes and drops out-of-range indexes.
// The first fragment is an implicit boundary, so index 0 is never kept.
func sanitizeBoundaries(raw []int, count int) []int {
	cleaned := make([]int, 0, len(raw))
	for _, idx := range raw {
		if idx > 0 && idx < count {
			cleaned = append(cleaned, idx)
		}
	}
	slices.Sort(cleaned)
	return slices.Compact(cleaned)
}
