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


// Package graph defines the episode store the ingestion pipeline feeds.
//
// A Backend receives one episode per document version, extracts the
// entities and relationships the episode asserts, and answers tenant-scoped
// searches over what it has stored. Two implementations exist:
//
//   - LocalBackend persists everything in the embedded store through
//     storage.GraphRepository; search is keyword matching over entity
//     names, relation edges and episode content.
//   - graph/neo4j mirrors the same contract onto a Neo4j server using
//     Cypher MERGE statements.
//
// Whichever backend is configured, episode identity is the (tenant,
// document, version) triple: submitting the same triple twice overwrites
// rather than duplicates, so a retried submission converges on one episode.
package graph
