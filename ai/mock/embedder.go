package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Dimensions is the width of every vector the mock produces. It matches
// the default embedding model so cached metadata and similarity math see
// realistic shapes in tests.
const Dimensions = 384

// MockEmbedder is a test double for ai.Embedder. Without injected
// behavior it embeds deterministically: the same snippet of profile or
// query text always maps to the same unit vector, and text differing
// only in case or surrounding whitespace maps identically, mirroring
// the normalization the query cache applies before lookup.
type MockEmbedder struct {
	// EmbedTextFunc overrides EmbedText when set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc overrides EmbedTexts when set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	callCount int
}

// NewMockEmbedder creates a mock embedder with deterministic defaults.
// Returns the concrete type so tests can reach the function fields and
// the call counter.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText embeds a single query string.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text), nil
}

// EmbedTexts embeds a batch of entity snapshots.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text)
	}
	return vectors, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// deterministicVector derives a unit vector from the text. The seed comes
// from the case-folded, trimmed text so "Go developer in Pune" and
// "go developer in pune" occupy the same point, the way a normalized
// query key would.
func deterministicVector(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(text))))
	seed := h.Sum32()

	vector := make([]float32, Dimensions)
	var sumSquares float64
	for i := range vector {
		seed = seed*1664525 + 1013904223 // LCG constants
		v := float32(seed%1000) / 1000.0
		vector[i] = v
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
