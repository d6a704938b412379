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


// Package search answers combined queries over the vector and graph
// stores.
//
// A query runs both paths against the tenant's current document versions:
//   - Vector: the query text is embedded and matched against chunk
//     vectors by cosine similarity.
//   - Graph: episode and relationship facts matching the query keywords.
//
// The two result lists stay separate; there is no cross-store fusion.
// When one store fails the other still answers and the failure becomes a
// warning on the result. Only both stores failing surfaces an error.
package search
