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


package mock

import "github.com/poiesic/talentmatch/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder, parser, and ranker instances.
type MockProvider struct {
	embedder *MockEmbedder
	parser   *MockFilterParser
	ranker   *MockRanker
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockParser()/GetMockRanker() to access concrete
// types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		parser:   NewMockFilterParser(),
		ranker:   NewMockRanker(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, parser *MockFilterParser, ranker *MockRanker) ai.Provider {
	return &MockProvider{
		embedder: embedder,
		parser:   parser,
		ranker:   ranker,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// FilterParser returns the mock filter parser.
func (p *MockProvider) FilterParser() ai.FilterParser {
	return p.parser
}

// Ranker returns the mock ranker.
func (p *MockProvider) Ranker() ai.Ranker {
	return p.ranker
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockParser returns the underlying mock filter parser for test assertions.
func (p *MockProvider) GetMockParser() *MockFilterParser {
	return p.parser
}

// GetMockRanker returns the underlying mock ranker for test assertions.
func (p *MockProvider) GetMockRanker() *MockRanker {
	return p.ranker
}
