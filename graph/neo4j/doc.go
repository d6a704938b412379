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


// Package neo4j implements graph.Backend against a Neo4j server.
//
// Episodes become (:Episode) nodes and extracted entities (:Entity) nodes,
// joined by MENTIONS and RELATES_TO relationships. Every node and
// relationship carries tenant_id, every query filters on it, and every
// write is a MERGE keyed by the same identity the embedded backend uses,
// so a replayed submission converges instead of duplicating.
package neo4j
