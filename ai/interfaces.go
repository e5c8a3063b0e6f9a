package ai

import (
	"context"

	"github.com/poiesic/talentmatch/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch.
	// The returned slice matches the input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// FilterParser turns a free-text query into a structured filter set.
// Output is untrusted collaborator data: callers must validate it against
// the controlled vocabulary before use.
// Implementations must be thread-safe for concurrent use.
type FilterParser interface {
	// ParseQuery extracts structured filters from raw query text.
	// A parse failure is an error; the caller decides how to degrade.
	ParseQuery(ctx context.Context, query string) (*core.ParsedFilters, error)
}

// CandidateLine is one compact profile line submitted for reasoning-based
// ranking.
type CandidateLine struct {
	ID   core.ID
	Line string // Pipe-delimited compact profile
}

// RankedLine is one well-formed line of reasoning-ranker output.
type RankedLine struct {
	ID            core.ID
	Tier          int // 1-4
	Score         float64
	SubScores     map[string]float64
	Justification string
}

// Ranker asks a reasoning service to tier and score candidates in one
// batched call. Malformed output lines are skipped, not fatal: the result
// may cover fewer candidates than the input, and callers must default the
// absentees. Implementations must be thread-safe for concurrent use.
type Ranker interface {
	RankCandidates(ctx context.Context, query string, candidates []CandidateLine) ([]RankedLine, error)
}

// Provider aggregates the AI collaborators for convenient initialization
// and lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// FilterParser returns the NL-to-filter service.
	FilterParser() FilterParser

	// Ranker returns the reasoning ranking service.
	Ranker() Ranker

	// Close releases resources held by the provider and its services.
	Close() error
}
