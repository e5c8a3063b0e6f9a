// Copyright 2025 Poiesic Systems
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


// Package ai provides abstractions for the AI collaborators used in talentmatch.
//
// The package defines interfaces for the three external reasoning services
// the matching core depends on, so that business logic depends on
// abstractions rather than concrete implementations:
//
//   - Embedder: generates vector embeddings from text
//   - FilterParser: turns free-text queries into structured filter sets
//   - Ranker: tiers and scores candidate batches with a reasoning model
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Collaborator output is untrusted. The parser and ranker adapters strip
// markdown fences, repair common JSON faults, and skip malformed ranking
// lines, but semantic validation (controlled vocabularies, tier bands)
// belongs to the consuming packages.
//
// Production constructors return interface types to enforce abstraction;
// mock constructors return concrete types so tests can inject behavior via
// function fields and assert on call counts.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	filters, err := provider.FilterParser().ParseQuery(ctx, "python devs in pune, 3+ years")
package ai
