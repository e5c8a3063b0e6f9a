package mock

import (
	"context"
	"strings"

	"github.com/poiesic/talentmatch/core"
)

// MockFilterParser is a test double for ai.FilterParser.
// It allows custom behavior injection via function fields.
type MockFilterParser struct {
	// ParseQueryFunc is called by ParseQuery if set.
	// If nil, uses default word-splitting behavior.
	ParseQueryFunc func(ctx context.Context, query string) (*core.ParsedFilters, error)

	callCount int
}

// NewMockFilterParser creates a mock filter parser with default behavior.
// Returns the concrete type so tests can reach the function fields and
// the call counter.
func NewMockFilterParser() *MockFilterParser {
	return &MockFilterParser{}
}

// ParseQuery extracts simple filters from the query text. The default
// treats every word as a skill and recognizes deployment code words, which
// is enough structure for retrieval tests.
func (m *MockFilterParser) ParseQuery(ctx context.Context, query string) (*core.ParsedFilters, error) {
	m.callCount++

	if m.ParseQueryFunc != nil {
		return m.ParseQueryFunc(ctx, query)
	}

	filters := core.NewParsedFilters()
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if core.IsValidDeployment(word) {
			filters.Deployment = word
			continue
		}
		filters.Skills = append(filters.Skills, word)
	}
	filters.Normalize()
	return filters, nil
}

// CallCount returns the number of times ParseQuery was called.
func (m *MockFilterParser) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockFilterParser) Reset() {
	m.callCount = 0
	m.ParseQueryFunc = nil
}
