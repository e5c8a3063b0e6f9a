package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store"
)

const (
	gazetteerKey = "gazetteer:locations"
	gazetteerTTL = time.Hour
)

// ParseResult is the explicit outcome of filter parsing. A collaborator
// failure still yields usable (empty) filters; Err records why the query
// runs degraded.
type ParseResult struct {
	Filters *core.ParsedFilters
	Err     error
}

// Degraded reports whether parsing fell back to empty filters.
func (r ParseResult) Degraded() bool {
	return r.Err != nil
}

// Parse extracts structured filters from raw query text via the reasoning
// collaborator and validates the untrusted result: deployment values
// outside the controlled set are cleared, and a location that is not a
// known store location is dropped (a recurring parser failure mode puts a
// skill or domain word there).
func (e *Engine) Parse(ctx context.Context, query string) ParseResult {
	filters, err := e.parser.ParseQuery(ctx, query)
	if err != nil {
		e.logger.Warn("filter parsing degraded to empty filters", "err", err)
		return ParseResult{Filters: core.NewParsedFilters(), Err: err}
	}
	if filters == nil {
		filters = core.NewParsedFilters()
	}

	if filters.Deployment != "" && !core.IsValidDeployment(filters.Deployment) {
		e.logger.Warn("dropping deployment outside controlled set", "deployment", filters.Deployment)
		filters.Deployment = ""
	}

	if filters.Location != "" && !e.knownLocation(ctx, filters.Location) {
		e.logger.Warn("dropping unrecognized location", "location", filters.Location)
		filters.Location = ""
	}

	filters.Normalize()
	return ParseResult{Filters: filters}
}

// knownLocation checks the candidate location against a cached gazetteer
// of distinct store locations. An unreachable store admits the value
// rather than silently narrowing the query.
func (e *Engine) knownLocation(ctx context.Context, location string) bool {
	var locations []string
	if !e.cache.Get(ctx, gazetteerKey, &locations) {
		var err error
		locations, err = e.store.DistinctValues(ctx, store.DimensionLocation)
		if err != nil {
			e.logger.Warn("gazetteer load failed, accepting location as-is", "err", err)
			return true
		}
		e.cache.Set(ctx, gazetteerKey, locations, gazetteerTTL)
	}

	want := strings.ToLower(strings.TrimSpace(location))
	for _, known := range locations {
		if locationMatches(known, want) {
			return true
		}
	}
	return false
}
