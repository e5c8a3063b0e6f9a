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


// Package ranking is the two-stage candidate ranking pipeline:
// deterministic pre-ranking skims candidates whose allocation already
// caps their tier, the remainder go to the reasoning collaborator in
// batches, and the stages combine into one ordered, complete result.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/compress"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/notify"
	"github.com/poiesic/talentmatch/retrieval"
	"github.com/poiesic/talentmatch/task"
	"golang.org/x/sync/semaphore"
)

const resultPrefix = "ranked:"

var (
	ErrRetrievalRequired  = errors.New("retrieval engine is required")
	ErrCompressorRequired = errors.New("compression service is required")
	ErrRankerRequired     = errors.New("ranker is required")
	ErrCacheRequired      = errors.New("cache manager is required")
)

// Result is one completed search.
type Result struct {
	Query       string                 `json:"query"`
	Filters     *core.ParsedFilters    `json:"filters"`
	Candidates  []core.RankedCandidate `json:"candidates"`
	Degraded    bool                   `json:"degraded"`
	Reasons     []string               `json:"reasons,omitempty"`
	FromCache   bool                   `json:"from_cache"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Pipeline orchestrates retrieval, compression, and the two ranking
// stages.
type Pipeline struct {
	retrieval  *retrieval.Engine
	compressor *compress.Service
	ranker     ai.Ranker
	cache      *cache.Manager
	tasks      *task.Queue
	notifier   notify.Sink
	policy     Policy
	sem        *semaphore.Weighted
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithPolicy replaces the default policy table.
func WithPolicy(policy Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithTaskQueue sets the background queue for async result caching.
// Without one, results are cached synchronously.
func WithTaskQueue(q *task.Queue) Option {
	return func(p *Pipeline) {
		p.tasks = q
	}
}

// WithNotifier sets the event sink. Defaults to NoopSink.
func WithNotifier(sink notify.Sink) Option {
	return func(p *Pipeline) {
		p.notifier = sink
	}
}

// NewPipeline creates a ranking pipeline.
func NewPipeline(re *retrieval.Engine, comp *compress.Service, ranker ai.Ranker, cm *cache.Manager, opts ...Option) (*Pipeline, error) {
	if re == nil {
		return nil, ErrRetrievalRequired
	}
	if comp == nil {
		return nil, ErrCompressorRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if cm == nil {
		return nil, ErrCacheRequired
	}

	p := &Pipeline{
		retrieval:  re,
		compressor: comp,
		ranker:     ranker,
		cache:      cm,
		notifier:   notify.NoopSink{},
		policy:     DefaultPolicy(),
		logger:     slog.Default().With("component", "ranking"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.policy.BatchSize < 1 {
		p.policy.BatchSize = 1
	}
	if p.policy.MaxInFlightBatches < 1 {
		p.policy.MaxInFlightBatches = 1
	}
	p.sem = semaphore.NewWeighted(p.policy.MaxInFlightBatches)
	return p, nil
}

// Search runs the full flow for one query: parse, fingerprint check,
// retrieve, compress, rank, combine. Collaborator failures degrade the
// result; only an unreachable system of record or an empty candidate set
// surface as errors.
func (p *Pipeline) Search(ctx context.Context, query string) (*Result, error) {
	parsed := p.retrieval.Parse(ctx, query)
	filters := parsed.Filters

	var reasons []string
	if parsed.Degraded() {
		reasons = append(reasons, "filter parsing failed: "+parsed.Err.Error())
	}

	// A degraded parse yields empty filters whose fingerprint would alias
	// unrelated queries, so the result cache is skipped entirely.
	cacheable := !parsed.Degraded()
	key := resultPrefix + filters.Fingerprint()

	if cacheable {
		var cached Result
		if p.cache.Get(ctx, key, &cached) {
			cached.FromCache = true
			p.logger.Debug("ranked-result cache hit", "key", key)
			p.notifier.Publish(ctx, notify.NewEvent("search.cache_hit", map[string]any{"query": query}))
			return &cached, nil
		}
	}

	retrieved, err := p.retrieval.Retrieve(ctx, query, filters)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return nil, fmt.Errorf("%w: no candidates matched", core.ErrNotFound)
	}

	ordered := p.retrieval.Rerank(retrieved, query, filters)

	ids := make([]core.ID, len(ordered))
	for i, c := range ordered {
		ids[i] = c.Employee.ID
	}
	profiles, err := p.compressor.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles = reorder(profiles, ids)

	preRanked, reasoned, degradedRank := p.rank(ctx, query, filters, profiles)
	if degradedRank != "" {
		reasons = append(reasons, degradedRank)
	}

	result := &Result{
		Query:       query,
		Filters:     filters,
		Candidates:  Combine(preRanked, reasoned),
		Degraded:    len(reasons) > 0,
		Reasons:     reasons,
		GeneratedAt: time.Now().UTC(),
	}

	if cacheable {
		p.cacheResult(ctx, key, result)
	}
	p.notifier.Publish(ctx, notify.NewEvent("search.completed", map[string]any{
		"query":      query,
		"candidates": len(result.Candidates),
		"degraded":   result.Degraded,
	}))
	return result, nil
}

// rank runs the stage split selected by the policy variant. A reasoning
// failure falls back to rule-based ranking for the affected candidates and
// reports the degradation reason.
func (p *Pipeline) rank(ctx context.Context, query string, filters *core.ParsedFilters, profiles []*core.CompressedProfile) (preRanked, reasoned []core.RankedCandidate, degraded string) {
	var rest []*core.CompressedProfile

	switch p.policy.Variant {
	case VariantCriteria:
		return p.ForceRank(filters, profiles), nil, ""
	case VariantSinglePass:
		rest = profiles
	default:
		preRanked, rest = p.PreRank(filters, profiles)
	}

	if len(rest) == 0 {
		return preRanked, nil, ""
	}

	reasoned, err := p.ReasonRank(ctx, query, rest)
	if err != nil {
		p.logger.Warn("reason-ranking degraded to rule-based", "err", err)
		return preRanked, p.ForceRank(filters, rest), "reasoning ranker failed: " + err.Error()
	}
	return preRanked, reasoned, ""
}

// cacheResult persists the ranked result, asynchronously when a task
// queue is wired.
func (p *Pipeline) cacheResult(ctx context.Context, key string, result *Result) {
	write := func(ctx context.Context) error {
		if !p.cache.Set(ctx, key, result, p.policy.ResultTTL) {
			return fmt.Errorf("cache write degraded for %s", key)
		}
		return nil
	}

	if p.tasks == nil {
		if err := write(ctx); err != nil {
			p.logger.Warn("ranked-result cache write failed", "err", err)
		}
		return
	}

	if _, err := p.tasks.Submit(ctx, "cache-ranked-result", write); err != nil {
		p.logger.Warn("could not schedule ranked-result cache write", "err", err)
	}
}

// reorder restores retrieval order after BatchGet, which returns cache
// hits ahead of generated profiles.
func reorder(profiles []*core.CompressedProfile, ids []core.ID) []*core.CompressedProfile {
	byID := make(map[core.ID]*core.CompressedProfile, len(profiles))
	for _, profile := range profiles {
		byID[profile.EmployeeID] = profile
	}

	out := make([]*core.CompressedProfile, 0, len(profiles))
	for _, id := range ids {
		if profile, ok := byID[id]; ok {
			out = append(out, profile)
		}
	}
	return out
}
