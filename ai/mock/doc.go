// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.FilterParser,
// ai.Ranker, and ai.Provider for use in unit tests. The mocks allow tests to
// run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embedding, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockRanker := mock.NewMockRanker()
//	mockRanker.RankCandidatesFunc = func(ctx context.Context, query string, candidates []ai.CandidateLine) ([]ai.RankedLine, error) {
//	    return nil, errors.New("ranker down")
//	}
//
//	// Check call counts
//	count := mockRanker.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockFilterParser: Treats query words as skills, recognizing deployment codes
//   - MockRanker: Ranks every candidate tier 1 with position-based scores
//   - MockProvider: Aggregates the three mock services
package mock
