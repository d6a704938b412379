package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
)

// Backend is the episode store the ingestion pipeline submits one episode
// per document version to. Implementations extract and persist the
// entities and relationships each episode asserts, keyed by (tenant,
// document, version) so a replayed submission overwrites instead of
// duplicating.
type Backend interface {
	// AddEpisode stores one episode and returns an opaque reference to it.
	AddEpisode(ctx context.Context, ep *core.Episode) (string, error)

	// Search finds episodes and relationship facts matching the query,
	// scoped to the tenant. Results are ordered by score descending, up
	// to limit.
	Search(ctx context.Context, tenantID, query string, limit int) ([]*core.GraphHit, error)

	// DeleteDocument removes everything recorded for a document across
	// all of its versions.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error

	// Close releases resources held by the backend.
	Close(ctx context.Context) error
}

// EpisodeRef renders the canonical reference for a stored episode.
func EpisodeRef(tenantID, documentID string, version int) string {
	return fmt.Sprintf("%s/%s/v%d", tenantID, documentID, version)
}

// ExtractionText assembles what the entity extractor sees for an episode:
// title, body and summary, whichever are present.
func ExtractionText(ep *core.Episode) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{ep.Name, ep.Body, ep.Summary} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Search score tiers shared by every backend. An episode matching on both
// content and mentioned entities outranks either signal alone, and a full
// verbatim match earns an extra boost.
const (
	entityOnlyScore = 1.2
	hybridFactor    = 1.5
	verbatimBoost   = 0.3
)

// RelationFactScore is the flat score a relationship fact hit receives.
const RelationFactScore float32 = 1.2

// ScoreContent weighs an episode's content match: matched of total query
// words appeared in its text, and entityMatches of its mentioned entities
// matched the query. Returns 0 when nothing matched at all.
func ScoreContent(matched, total, entityMatches int) float32 {
	if total == 0 || (matched == 0 && entityMatches == 0) {
		return 0
	}

	base := float32(matched) / float32(total)
	var score float32
	switch {
	case matched > 0 && entityMatches > 0:
		score = hybridFactor * base
	case entityMatches > 0:
		score = entityOnlyScore
	default:
		score = base
	}
	if matched == total {
		score += verbatimBoost
	}
	return score
}
