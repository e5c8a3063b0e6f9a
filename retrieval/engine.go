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


// Package retrieval implements the hybrid candidate retrieval engine:
// structured filtering, vector similarity over cached embeddings, and a
// keyword-substring fallback, merged under a fixed priority order and
// reranked with context-dependent weights.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/embedcache"
	"github.com/poiesic/talentmatch/store"
	"golang.org/x/sync/errgroup"
)

var (
	ErrStoreRequired  = errors.New("store is required")
	ErrParserRequired = errors.New("filter parser is required")
	ErrEmbedsRequired = errors.New("embedding cache is required")
	ErrCacheRequired  = errors.New("cache manager is required")
)

// Policy holds retrieval tuning knobs. Values are operational defaults,
// not derived truths.
type Policy struct {
	MinSimilarity float64 // Vector-arm similarity floor
	TopN          int     // Vector-arm result bound

	// Desirability maps deployment codes to availability scores.
	Desirability map[core.DeploymentCode]float64

	// Weights for the five rerank sub-scores, selected by query intent.
	SkillIntentWeights Weights
	DefaultWeights     Weights
}

// Weights are the rerank combination coefficients. They should sum to 1.
type Weights struct {
	Seniority    float64
	Availability float64
	Skills       float64
	Domain       float64
	Location     float64
}

// DefaultPolicy returns the documented default policy table.
func DefaultPolicy() Policy {
	return Policy{
		MinSimilarity: 0.35,
		TopN:          25,
		Desirability:  core.DefaultDesirability,
		SkillIntentWeights: Weights{
			Seniority:    0.10,
			Availability: 0.15,
			Skills:       0.35,
			Domain:       0.30,
			Location:     0.10,
		},
		DefaultWeights: Weights{
			Seniority:    0.30,
			Availability: 0.35,
			Skills:       0.15,
			Domain:       0.10,
			Location:     0.10,
		},
	}
}

// Engine runs the hybrid retrieval flow.
type Engine struct {
	store  store.Reader
	parser ai.FilterParser
	embeds *embedcache.Service
	cache  *cache.Manager
	policy Policy
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPolicy replaces the default policy table.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// NewEngine creates a retrieval engine.
func NewEngine(st store.Reader, parser ai.FilterParser, embeds *embedcache.Service, cm *cache.Manager, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if parser == nil {
		return nil, ErrParserRequired
	}
	if embeds == nil {
		return nil, ErrEmbedsRequired
	}
	if cm == nil {
		return nil, ErrCacheRequired
	}

	e := &Engine{
		store:  st,
		parser: parser,
		embeds: embeds,
		cache:  cm,
		policy: DefaultPolicy(),
		logger: slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Retrieve runs the retrieval strategies for the parsed filters. Strict
// filters run the structured query alone, even when it matches nothing.
// Otherwise the three strategies fan out concurrently and merge.
func (e *Engine) Retrieve(ctx context.Context, query string, filters *core.ParsedFilters) ([]core.RetrievedCandidate, error) {
	if filters == nil {
		filters = core.NewParsedFilters()
	}

	if filters.Strict() {
		structured, err := e.structured(ctx, filters)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("strict retrieval", "structured", len(structured))
		return e.Merge(structured, nil, nil, filters), nil
	}

	var structured, vector, keyword []core.RetrievedCandidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		structured, err = e.structured(gctx, filters)
		return err
	})
	g.Go(func() error {
		// Vector arm degrades to empty; only the system of record raises.
		var err error
		vector, err = e.vector(gctx, query, filters)
		if err != nil {
			e.logger.Warn("vector retrieval degraded", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		keyword, err = e.keyword(gctx, query, filters)
		if err != nil {
			e.logger.Warn("keyword retrieval degraded", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("hybrid retrieval",
		"structured", len(structured), "vector", len(vector), "keyword", len(keyword))
	return e.Merge(structured, vector, keyword, filters), nil
}

// Merge dedupes candidates by ID under priority structured > vector >
// keyword. When a location filter is present, vector and keyword rows must
// match it; structured rows already did.
func (e *Engine) Merge(structured, vector, keyword []core.RetrievedCandidate, filters *core.ParsedFilters) []core.RetrievedCandidate {
	wantLocation := ""
	if filters != nil {
		wantLocation = strings.ToLower(strings.TrimSpace(filters.Location))
	}

	seen := make(map[core.ID]bool)
	var out []core.RetrievedCandidate

	add := func(candidates []core.RetrievedCandidate, locationFiltered bool) {
		for _, c := range candidates {
			if c.Employee == nil || seen[c.Employee.ID] {
				continue
			}
			if locationFiltered && wantLocation != "" && !locationMatches(c.Employee.Location, wantLocation) {
				continue
			}
			seen[c.Employee.ID] = true
			out = append(out, c)
		}
	}

	add(structured, false)
	add(vector, true)
	add(keyword, true)
	return out
}

func (e *Engine) structured(ctx context.Context, filters *core.ParsedFilters) ([]core.RetrievedCandidate, error) {
	f := store.Filter{
		Department:      filters.Department,
		Designation:     filters.Designation,
		Location:        filters.Location,
		NameContains:    filters.EmployeeName,
		ProjectContains: filters.Project,
		SkillsAny:       filters.Skills,
	}

	employees, err := e.store.QueryEmployees(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: structured query: %w", core.ErrUpstreamUnavailable, err)
	}

	var out []core.RetrievedCandidate
	for _, emp := range employees {
		if !matchesRefinements(emp, filters) {
			continue
		}
		out = append(out, core.RetrievedCandidate{Employee: emp, Source: core.SourceStructured, Score: 1})
	}
	return out, nil
}

func (e *Engine) keyword(ctx context.Context, query string, filters *core.ParsedFilters) ([]core.RetrievedCandidate, error) {
	terms := filters.Skills
	if len(terms) == 0 {
		terms = strings.Fields(strings.ToLower(query))
	}

	employees, err := e.store.SearchKeyword(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("keyword query: %w", err)
	}

	var out []core.RetrievedCandidate
	for _, emp := range employees {
		out = append(out, core.RetrievedCandidate{Employee: emp, Source: core.SourceKeyword, Score: 0.5})
	}
	return out, nil
}

func (e *Engine) vector(ctx context.Context, query string, filters *core.ParsedFilters) ([]core.RetrievedCandidate, error) {
	queryVec, ok, err := e.embeds.QueryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	entries, err := e.embeds.AllEntityEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		id    core.ID
		score float64
	}
	var hits []scored
	for _, entry := range entries {
		sim := CosineSimilarity(queryVec, entry.Vector)
		if sim >= e.policy.MinSimilarity {
			hits = append(hits, scored{id: entry.EmployeeID, score: sim})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if e.policy.TopN > 0 && len(hits) > e.policy.TopN {
		hits = hits[:e.policy.TopN]
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, len(hits))
	scores := make(map[core.ID]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
		scores[h.id] = h.score
	}

	employees, err := e.store.GetEmployees(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("loading vector hits: %w", err)
	}

	out := make([]core.RetrievedCandidate, 0, len(employees))
	for _, emp := range employees {
		out = append(out, core.RetrievedCandidate{Employee: emp, Source: core.SourceVector, Score: scores[emp.ID]})
	}
	return out, nil
}

// matchesRefinements applies the filter dimensions the store query cannot
// express: experience bounds and deployment status.
func matchesRefinements(emp *core.Employee, filters *core.ParsedFilters) bool {
	if filters.ExperienceMin != core.ExperienceUnset || filters.ExperienceMax != core.ExperienceUnset {
		years := experienceYears(emp)
		if filters.ExperienceMin != core.ExperienceUnset && years < filters.ExperienceMin {
			return false
		}
		if filters.ExperienceMax != core.ExperienceUnset && years > filters.ExperienceMax {
			return false
		}
	}

	if filters.Deployment != "" {
		want := core.DeploymentCode(filters.Deployment)
		if want == core.DeployFree {
			// Asking for free people means no active external allocation.
			for _, eng := range emp.Engagements {
				if core.ClassifyStatus(eng.StatusLabel, eng.Client).IsExternal() && eng.Occupancy > 0 {
					return false
				}
			}
			return true
		}
		for _, eng := range emp.Engagements {
			if core.ClassifyStatus(eng.StatusLabel, eng.Client) == want {
				return true
			}
		}
		return false
	}
	return true
}

func locationMatches(got, wantLower string) bool {
	g := strings.ToLower(strings.TrimSpace(got))
	if g == "" {
		return false
	}
	return g == wantLower || strings.Contains(g, wantLower) || strings.Contains(wantLower, g)
}
