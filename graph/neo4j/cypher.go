package neo4j

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph"
)

const episodeMergeCypher = `
MERGE (e:Episode {tenant_id: $tenant_id, document_id: $document_id, version: $version})
SET e.name = $name,
    e.body = $body,
    e.summary = $summary,
    e.source = $source,
    e.occurred_at = $occurred_at,
    e.synced_at = $synced_at
`

const mentionsMergeCypher = `
MATCH (e:Episode {tenant_id: $tenant_id, document_id: $document_id, version: $version})
UNWIND $entities AS n
MERGE (c:Entity {tenant_id: $tenant_id, type: n.type, name: n.name})
SET c.synced_at = $synced_at
MERGE (e)-[m:MENTIONS]->(c)
SET m.salience = n.salience
`

const relatesMergeCypher = `
UNWIND $relations AS r
MATCH (a:Entity {tenant_id: $tenant_id, type: r.from_type, name: r.from})
MATCH (b:Entity {tenant_id: $tenant_id, type: r.to_type, name: r.to})
MERGE (a)-[rel:RELATES_TO {verb: r.verb, document_id: $document_id, version: $version}]->(b)
SET rel.tenant_id = $tenant_id,
    rel.synced_at = $synced_at
`

const episodeSearchCypher = `
MATCH (e:Episode {tenant_id: $tenant_id})
WITH e, [word IN $words WHERE toLower(e.name) CONTAINS word OR toLower(e.body) CONTAINS word] AS hits
OPTIONAL MATCH (e)-[:MENTIONS]->(c:Entity)
WHERE any(word IN $words WHERE toLower(c.name) CONTAINS word)
WITH e, hits, collect(DISTINCT c.name) AS entities
WHERE size(hits) > 0 OR size(entities) > 0
RETURN e.document_id AS document_id,
       e.version AS version,
       e.body AS body,
       entities,
       size(hits) AS matched
ORDER BY matched DESC, e.document_id, e.version
LIMIT $limit
`

const relationSearchCypher = `
MATCH (a:Entity {tenant_id: $tenant_id})-[r:RELATES_TO]->(b:Entity)
WHERE any(word IN $words WHERE toLower(a.name) CONTAINS word OR toLower(b.name) CONTAINS word)
RETURN a.name AS from,
       r.verb AS verb,
       b.name AS to,
       r.document_id AS document_id,
       r.version AS version
ORDER BY from, verb, to
LIMIT $limit
`

const relationDeleteCypher = `
MATCH (:Entity {tenant_id: $tenant_id})-[r:RELATES_TO {document_id: $document_id}]->(:Entity)
DELETE r
`

const episodeDeleteCypher = `
MATCH (e:Episode {tenant_id: $tenant_id, document_id: $document_id})
DETACH DELETE e
`

// Uniqueness on composite keys needs an enterprise server; plain indexes
// cover the community edition, so failures here are survivable.
var schemaStatements = []string{
	`CREATE CONSTRAINT episode_identity IF NOT EXISTS FOR (e:Episode) REQUIRE (e.tenant_id, e.document_id, e.version) IS UNIQUE`,
	`CREATE CONSTRAINT entity_identity IF NOT EXISTS FOR (c:Entity) REQUIRE (c.tenant_id, c.type, c.name) IS UNIQUE`,
	`CREATE INDEX entity_tenant_idx IF NOT EXISTS FOR (c:Entity) ON (c.tenant_id)`,
}

// episodeParams flattens an episode into the merge statement's parameters.
func episodeParams(ep *core.Episode, syncedAt string) map[string]any {
	return map[string]any{
		"tenant_id":   ep.TenantId,
		"document_id": ep.DocumentId,
		"version":     int64(ep.Version),
		"name":        ep.Name,
		"body":        ep.Body,
		"summary":     ep.Summary,
		"source":      string(ep.Source),
		"occurred_at": ep.OccurredAt.UTC().Format(time.RFC3339Nano),
		"synced_at":   syncedAt,
	}
}

// entityParams builds the UNWIND rows for extracted entities.
func entityParams(entities []ai.ExtractedEntity) []map[string]any {
	rows := make([]map[string]any, 0, len(entities))
	for _, entity := range entities {
		rows = append(rows, map[string]any{
			"type":     entity.Type,
			"name":     entity.Name,
			"salience": int64(entity.Salience),
		})
	}
	return rows
}

// relationParams builds the UNWIND rows for extracted relations. Endpoint
// types come from the extraction's entity list; a relation naming an entity
// the extraction did not return is dropped.
func relationParams(extraction *ai.Extraction) []map[string]any {
	typesByName := make(map[string]string, len(extraction.Entities))
	for _, entity := range extraction.Entities {
		typesByName[entity.Name] = entity.Type
	}

	rows := make([]map[string]any, 0, len(extraction.Relations))
	for _, relation := range extraction.Relations {
		fromType, okFrom := typesByName[relation.From]
		toType, okTo := typesByName[relation.To]
		if !okFrom || !okTo {
			continue
		}
		rows = append(rows, map[string]any{
			"from":      relation.From,
			"from_type": fromType,
			"verb":      relation.Verb,
			"to":        relation.To,
			"to_type":   toType,
		})
	}
	return rows
}

// relationHit maps one relationship row to a fact hit.
func relationHit(record *neo4j.Record) *core.GraphHit {
	from := stringValue(record, "from")
	verb := stringValue(record, "verb")
	to := stringValue(record, "to")
	if from == "" || verb == "" || to == "" {
		return nil
	}

	return &core.GraphHit{
		Fact:       from + " " + verb + " " + to,
		Entities:   []string{from, to},
		DocumentId: stringValue(record, "document_id"),
		Version:    intValue(record, "version"),
		Score:      graph.RelationFactScore,
	}
}

// episodeHit maps one episode row to a hit, scored with the shared tiers.
// Rows that matched nothing after client-side scoring are dropped.
func episodeHit(record *neo4j.Record, queryWords int) *core.GraphHit {
	matched := intValue(record, "matched")
	entities := stringsValue(record, "entities")

	score := graph.ScoreContent(matched, queryWords, len(entities))
	if score == 0 {
		return nil
	}

	return &core.GraphHit{
		Fact:       graph.Snippet(stringValue(record, "body"), graph.SnippetRunes),
		Entities:   entities,
		DocumentId: stringValue(record, "document_id"),
		Version:    intValue(record, "version"),
		Score:      score,
	}
}

// stringValue reads a string column, tolerating missing or null values.
func stringValue(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// intValue reads an integer column; the driver delivers int64.
func intValue(record *neo4j.Record, key string) int {
	value, ok := record.Get(key)
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// stringsValue reads a list-of-strings column.
func stringsValue(record *neo4j.Record, key string) []string {
	value, ok := record.Get(key)
	if !ok {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
