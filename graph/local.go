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

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

// LocalBackend stores episodes in the embedded graph repository, using an
// entity extractor to pull out what each episode asserts.
type LocalBackend struct {
	repository storage.GraphRepository
	extractor  ai.EntityExtractor
	logger     *slog.Logger
}

var _ Backend = (*LocalBackend)(nil)

// Option configures a LocalBackend.
type Option func(*LocalBackend) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *LocalBackend) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewLocalBackend creates a backend over the embedded graph repository.
func NewLocalBackend(repository storage.GraphRepository, extractor ai.EntityExtractor, opts ...Option) (*LocalBackend, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	b := &LocalBackend{
		repository: repository,
		extractor:  extractor,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// AddEpisode extracts what the episode asserts and persists the episode,
// its entities and their relation edges. Every write is keyed, so a
// replayed submission converges on the same stored state.
func (b *LocalBackend) AddEpisode(ctx context.Context, ep *core.Episode) (string, error) {
	if err := core.ValidateEpisode(ep); err != nil {
		return "", err
	}

	extraction, err := b.extractor.ExtractEntities(ctx, ExtractionText(ep))
	if err != nil {
		return "", fmt.Errorf("extracting entities: %w", err)
	}

	entities := make([]*core.Entity, 0, len(extraction.Entities))
	salience := make(map[string]int, len(extraction.Entities))
	for _, found := range extraction.Entities {
		entities = append(entities, &core.Entity{
			TenantId: ep.TenantId,
			Name:     found.Name,
			Type:     found.Type,
		})
		salience[found.Name] = found.Salience
	}

	stored, err := b.repository.UpsertEntities(ctx, entities...)
	if err != nil {
		return "", fmt.Errorf("storing entities: %w", err)
	}

	idsByName := make(map[string]core.ID, len(stored))
	refs := make([]core.EntityRef, 0, len(stored))
	for _, entity := range stored {
		idsByName[entity.Name] = entity.Id
		refs = append(refs, core.EntityRef{EntityId: entity.Id, Salience: salience[entity.Name]})
	}

	row := *ep
	row.Entities = refs
	if err := b.repository.PutEpisode(ctx, &row); err != nil {
		return "", fmt.Errorf("storing episode: %w", err)
	}

	relations := make([]*core.Relation, 0, len(extraction.Relations))
	for _, rel := range extraction.Relations {
		fromID, fromOK := idsByName[rel.From]
		toID, toOK := idsByName[rel.To]
		if !fromOK || !toOK {
			b.logger.Debug("dropping relation with unknown endpoint", "from", rel.From, "to", rel.To)
			continue
		}
		relations = append(relations, &core.Relation{
			TenantId:   ep.TenantId,
			FromId:     fromID,
			ToId:       toID,
			Verb:       rel.Verb,
			DocumentId: ep.DocumentId,
			Version:    ep.Version,
		})
	}
	if len(relations) > 0 {
		if err := b.repository.AddRelations(ctx, relations...); err != nil {
			return "", fmt.Errorf("storing relations: %w", err)
		}
	}

	b.logger.Debug("episode stored",
		"tenantID", ep.TenantId,
		"documentID", ep.DocumentId,
		"version", ep.Version,
		"entities", len(stored),
		"relations", len(relations))

	return EpisodeRef(ep.TenantId, ep.DocumentId, ep.Version), nil
}

// Search runs tenant-scoped keyword matching over entity names, relation
// edges and episode content.
func (b *LocalBackend) Search(ctx context.Context, tenantID, query string, limit int) ([]*core.GraphHit, error) {
	queryWords := TokenizeQuery(query)
	if len(queryWords) == 0 {
		return []*core.GraphHit{}, nil
	}

	matched, names, err := b.matchEntities(ctx, tenantID, queryWords)
	if err != nil {
		return nil, err
	}

	hits, err := b.relationFacts(ctx, tenantID, matched, names)
	if err != nil {
		return nil, err
	}

	err = b.repository.IterateEpisodes(ctx, tenantID, func(ep *core.Episode) error {
		if hit := scoreEpisode(ep, queryWords, matched, names); hit != nil {
			hits = append(hits, hit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by score descending, then fact text for a stable order.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Fact < hits[j].Fact
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, nil
}

// DeleteDocument removes the document's episodes and relation edges.
func (b *LocalBackend) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	if err := b.repository.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("deleting document graph: %w", err)
	}
	return nil
}

// Close is a no-op; whoever owns the repository closes the store.
func (b *LocalBackend) Close(ctx context.Context) error {
	return nil
}

// matchEntities scans the tenant's entities, remembering every name and
// flagging the ones sharing a word with the query.
func (b *LocalBackend) matchEntities(ctx context.Context, tenantID string, queryWords []string) (map[core.ID]bool, map[core.ID]string, error) {
	matched := make(map[core.ID]bool)
	names := make(map[core.ID]string)
	err := b.repository.IterateEntities(ctx, tenantID, func(entity *core.Entity) error {
		names[entity.Id] = entity.Name
		if matchCount(entity.Name, queryWords) > 0 {
			matched[entity.Id] = true
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return matched, names, nil
}

// relationFacts renders the edges around matched entities as fact lines.
func (b *LocalBackend) relationFacts(ctx context.Context, tenantID string, matched map[core.ID]bool, names map[core.ID]string) ([]*core.GraphHit, error) {
	seen := make(map[string]bool)
	var hits []*core.GraphHit
	for id := range matched {
		relations, err := b.repository.RelationsForEntity(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		for _, rel := range relations {
			from, fromOK := names[rel.FromId]
			to, toOK := names[rel.ToId]
			if !fromOK || !toOK {
				continue
			}

			fact := from + " " + rel.Verb + " " + to
			// A fact reachable from both endpoints appears once.
			key := fact + "|" + rel.DocumentId
			if seen[key] {
				continue
			}
			seen[key] = true

			hits = append(hits, &core.GraphHit{
				Fact:       fact,
				Entities:   []string{from, to},
				DocumentId: rel.DocumentId,
				Version:    rel.Version,
				Score:      RelationFactScore,
			})
		}
	}
	return hits, nil
}

// scoreEpisode scores one episode against the query, returning nil when
// nothing matches.
func scoreEpisode(ep *core.Episode, queryWords []string, matched map[core.ID]bool, names map[core.ID]string) *core.GraphHit {
	count := matchCount(ep.Name+" "+ep.Body, queryWords)

	var mentioned []string
	for _, ref := range ep.Entities {
		if matched[ref.EntityId] {
			mentioned = append(mentioned, names[ref.EntityId])
		}
	}

	score := ScoreContent(count, len(queryWords), len(mentioned))
	if score == 0 {
		return nil
	}

	return &core.GraphHit{
		Fact:       Snippet(ep.Body, SnippetRunes),
		Entities:   mentioned,
		DocumentId: ep.DocumentId,
		Version:    ep.Version,
		Score:      score,
	}
}
