package mock

import (
	"context"

	"github.com/poiesic/talentmatch/ai"
)

// MockRanker is a test double for ai.Ranker.
// It allows custom behavior injection via function fields.
type MockRanker struct {
	// RankCandidatesFunc is called by RankCandidates if set.
	// If nil, uses default position-based behavior.
	RankCandidatesFunc func(ctx context.Context, query string, candidates []ai.CandidateLine) ([]ai.RankedLine, error)

	callCount int
}

// NewMockRanker creates a mock ranker with default deterministic behavior.
// Returns the concrete type so tests can reach the function fields and
// the call counter.
func NewMockRanker() *MockRanker {
	return &MockRanker{}
}

// RankCandidates ranks every candidate deterministically by input position:
// all tier 1, score descending from 100. Tests that need gaps or malformed
// output inject RankCandidatesFunc.
func (m *MockRanker) RankCandidates(ctx context.Context, query string, candidates []ai.CandidateLine) ([]ai.RankedLine, error) {
	m.callCount++

	if m.RankCandidatesFunc != nil {
		return m.RankCandidatesFunc(ctx, query, candidates)
	}

	out := make([]ai.RankedLine, len(candidates))
	for i, c := range candidates {
		out[i] = ai.RankedLine{
			ID:            c.ID,
			Tier:          1,
			Score:         float64(100 - i),
			SubScores:     map[string]float64{"skills": 0.9},
			Justification: "mock ranking",
		}
	}
	return out, nil
}

// CallCount returns the number of times RankCandidates was called.
func (m *MockRanker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockRanker) Reset() {
	m.callCount = 0
	m.RankCandidatesFunc = nil
}
