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


package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph"
)

const (
	connectTimeout = 10 * time.Second
	maxPoolSize    = 50

	// Fetch cap per statement when the caller asks for no limit.
	unboundedFetch = 1000
)

// Backend stores episodes in a Neo4j database.
type Backend struct {
	driver     neo4j.DriverWithContext
	database   string
	extractor  ai.EntityExtractor
	logger     *slog.Logger
	schemaOnce sync.Once
}

var _ graph.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend) error

// WithDatabase selects the database to use instead of the server default.
func WithDatabase(name string) Option {
	return func(b *Backend) error {
		b.database = name
		return nil
	}
}

// WithLogger sets a custom logger. Passing nil falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBackend connects to a Neo4j server and verifies it is reachable.
// The extractor supplies entities and relations for each stored episode.
func NewBackend(uri, username, password string, extractor ai.EntityExtractor, opts ...Option) (*Backend, error) {
	if extractor == nil {
		return nil, graph.ErrExtractorRequired
	}

	b := &Backend{
		extractor: extractor,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""), func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPoolSize
		cfg.SocketConnectTimeout = connectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("initializing neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	b.driver = driver
	return b, nil
}

// AddEpisode extracts entities from the episode and merges the episode node,
// its entities, and their relations in a single write transaction. Replaying
// the same (tenant, document, version) overwrites rather than duplicates.
func (b *Backend) AddEpisode(ctx context.Context, ep *core.Episode) (string, error) {
	if err := core.ValidateEpisode(ep); err != nil {
		return "", err
	}

	extraction, err := b.extractor.ExtractEntities(ctx, graph.ExtractionText(ep))
	if err != nil {
		return "", fmt.Errorf("extracting entities: %w", err)
	}

	b.ensureSchema(ctx)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	entities := entityParams(extraction.Entities)
	relations := relationParams(extraction)

	session := b.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: b.database,
	})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := runStatement(ctx, tx, episodeMergeCypher, episodeParams(ep, now)); err != nil {
			return nil, err
		}
		if len(entities) > 0 {
			params := map[string]any{
				"tenant_id":   ep.TenantId,
				"document_id": ep.DocumentId,
				"version":     int64(ep.Version),
				"entities":    entities,
				"synced_at":   now,
			}
			if err := runStatement(ctx, tx, mentionsMergeCypher, params); err != nil {
				return nil, err
			}
		}
		if len(relations) > 0 {
			params := map[string]any{
				"tenant_id":   ep.TenantId,
				"document_id": ep.DocumentId,
				"version":     int64(ep.Version),
				"relations":   relations,
				"synced_at":   now,
			}
			if err := runStatement(ctx, tx, relatesMergeCypher, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("writing episode graph: %w", err)
	}

	b.logger.Debug("episode stored",
		"tenantID", ep.TenantId,
		"documentID", ep.DocumentId,
		"version", ep.Version,
		"entities", len(entities),
		"relations", len(relations))

	return graph.EpisodeRef(ep.TenantId, ep.DocumentId, ep.Version), nil
}

// Search matches relation facts and episode content against the query words
// and scores the rows with the shared tiers, so results line up with the
// embedded backend's ordering.
func (b *Backend) Search(ctx context.Context, tenantID, query string, limit int) ([]*core.GraphHit, error) {
	words := graph.TokenizeQuery(query)
	if len(words) == 0 {
		return []*core.GraphHit{}, nil
	}

	fetch := int64(limit)
	if limit <= 0 {
		fetch = unboundedFetch
	}
	params := map[string]any{
		"tenant_id": tenantID,
		"words":     words,
		"limit":     fetch,
	}

	session := b.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: b.database,
	})
	defer session.Close(ctx)

	collected, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var hits []*core.GraphHit

		res, err := tx.Run(ctx, relationSearchCypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			if hit := relationHit(record); hit != nil {
				hits = append(hits, hit)
			}
		}

		res, err = tx.Run(ctx, episodeSearchCypher, params)
		if err != nil {
			return nil, err
		}
		records, err = res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			if hit := episodeHit(record, len(words)); hit != nil {
				hits = append(hits, hit)
			}
		}

		return hits, nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching graph: %w", err)
	}

	hits, _ := collected.([]*core.GraphHit)
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		// Stable order for equal scores.
		return hits[i].Fact < hits[j].Fact
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DeleteDocument removes the document's episode nodes and the relationships
// it contributed. Entity nodes are shared across documents and remain.
func (b *Backend) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: b.database,
	})
	defer session.Close(ctx)

	params := map[string]any{
		"tenant_id":   tenantID,
		"document_id": documentID,
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := runStatement(ctx, tx, relationDeleteCypher, params); err != nil {
			return nil, err
		}
		return nil, runStatement(ctx, tx, episodeDeleteCypher, params)
	})
	if err != nil {
		return fmt.Errorf("deleting document graph: %w", err)
	}
	return nil
}

// Close shuts the driver down and releases its connection pool.
func (b *Backend) Close(ctx context.Context) error {
	if b.driver == nil {
		return nil
	}
	err := b.driver.Close(ctx)
	b.driver = nil
	return err
}

// ensureSchema creates constraints and indexes once per process. Servers
// with restricted users reject schema statements; those failures are logged
// and ignored so writes can proceed.
func (b *Backend) ensureSchema(ctx context.Context) {
	b.schemaOnce.Do(func() {
		session := b.driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   neo4j.AccessModeWrite,
			DatabaseName: b.database,
		})
		defer session.Close(ctx)

		for _, stmt := range schemaStatements {
			res, err := session.Run(ctx, stmt, nil)
			if err != nil {
				b.logger.Warn("schema statement failed, continuing", "error", err)
				continue
			}
			if _, err := res.Consume(ctx); err != nil {
				b.logger.Warn("schema statement failed, continuing", "error", err)
			}
		}
	})
}

// runStatement executes one statement inside a transaction and drains its
// result so errors surface before commit.
func runStatement(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) error {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}
