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


// Package talentmatch wires the candidate-matching core: a cache-backed
// codebook/compression layer over a system-of-record reader, hybrid
// retrieval, and the two-stage ranking pipeline.
package talentmatch

import (
	"context"
	"log/slog"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/ai/openai"
	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/codebook"
	"github.com/poiesic/talentmatch/compress"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/embedcache"
	"github.com/poiesic/talentmatch/notify"
	"github.com/poiesic/talentmatch/ranking"
	"github.com/poiesic/talentmatch/retrieval"
	"github.com/poiesic/talentmatch/store"
	"github.com/poiesic/talentmatch/store/postgres"
	"github.com/poiesic/talentmatch/task"
)

// Engine is the assembled matching core. Construct once at startup and
// share; every service it owns is safe for concurrent use.
type Engine struct {
	cache      *cache.Manager
	store      store.Reader
	provider   ai.Provider
	books      *codebook.Service
	compressor *compress.Service
	embeds     *embedcache.Service
	retrieval  *retrieval.Engine
	pipeline   *ranking.Pipeline
	tasks      *task.Queue
	logger     *slog.Logger
}

// EngineOption configures engine construction.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig        *ai.Config
	cacheConfig     *cache.Config
	retrievalPolicy *retrieval.Policy
	rankingPolicy   *ranking.Policy
	databaseURL     string
	store           store.Reader
	provider        ai.Provider
	sink            notify.Sink
	poolSize        int
}

// WithAIConfig sets the reasoning/embedding service configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithCacheConfig sets the cache backend selection.
func WithCacheConfig(cfg *cache.Config) EngineOption {
	return func(o *engineOptions) {
		o.cacheConfig = cfg
	}
}

// WithRetrievalPolicy overrides the retrieval policy table.
func WithRetrievalPolicy(p retrieval.Policy) EngineOption {
	return func(o *engineOptions) {
		o.retrievalPolicy = &p
	}
}

// WithRankingPolicy overrides the ranking policy table.
func WithRankingPolicy(p ranking.Policy) EngineOption {
	return func(o *engineOptions) {
		o.rankingPolicy = &p
	}
}

// WithDatabaseURL points the engine at a postgres system of record.
func WithDatabaseURL(url string) EngineOption {
	return func(o *engineOptions) {
		o.databaseURL = url
	}
}

// WithStore injects a pre-built store, bypassing postgres. Used by tests
// and the seeder with the in-memory store.
func WithStore(st store.Reader) EngineOption {
	return func(o *engineOptions) {
		o.store = st
	}
}

// WithProvider injects a pre-built AI provider.
func WithProvider(p ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithNotifier sets the event sink. Defaults to a log sink.
func WithNotifier(sink notify.Sink) EngineOption {
	return func(o *engineOptions) {
		o.sink = sink
	}
}

// WithPoolSize sets the background worker pool size.
func WithPoolSize(n int) EngineOption {
	return func(o *engineOptions) {
		o.poolSize = n
	}
}

// NewEngine assembles the matching core. Startup configuration errors are
// the one error class that surfaces here; at runtime the services degrade
// instead.
func NewEngine(ctx context.Context, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:    ai.DefaultConfig(),
		cacheConfig: cache.DefaultConfig(),
		poolSize:    8,
	}
	for _, opt := range opts {
		opt(options)
	}

	cm, err := cache.Connect(ctx, options.cacheConfig)
	if err != nil {
		return nil, err
	}

	st := options.store
	if st == nil {
		st, err = postgres.Open(ctx, options.databaseURL)
		if err != nil {
			cm.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			st.Close()
			cm.Close()
			return nil, err
		}
	}

	books, err := codebook.NewService(st, cm)
	if err != nil {
		return nil, closeAll(err, provider, st, cm)
	}
	compressor, err := compress.NewService(st, cm, books)
	if err != nil {
		return nil, closeAll(err, provider, st, cm)
	}
	embeds, err := embedcache.NewService(st, cm, provider.Embedder())
	if err != nil {
		return nil, closeAll(err, provider, st, cm)
	}

	retrievalOpts := []retrieval.Option{}
	if options.retrievalPolicy != nil {
		retrievalOpts = append(retrievalOpts, retrieval.WithPolicy(*options.retrievalPolicy))
	}
	engine, err := retrieval.NewEngine(st, provider.FilterParser(), embeds, cm, retrievalOpts...)
	if err != nil {
		return nil, closeAll(err, provider, st, cm)
	}

	tasks, err := task.NewQueue(options.poolSize)
	if err != nil {
		return nil, closeAll(err, provider, st, cm)
	}

	sink := options.sink
	if sink == nil {
		sink = notify.NewLogSink(slog.Default())
	}

	pipelineOpts := []ranking.Option{
		ranking.WithTaskQueue(tasks),
		ranking.WithNotifier(sink),
	}
	if options.rankingPolicy != nil {
		pipelineOpts = append(pipelineOpts, ranking.WithPolicy(*options.rankingPolicy))
	}
	pipeline, err := ranking.NewPipeline(engine, compressor, provider.Ranker(), cm, pipelineOpts...)
	if err != nil {
		tasks.Release()
		return nil, closeAll(err, provider, st, cm)
	}

	return &Engine{
		cache:      cm,
		store:      st,
		provider:   provider,
		books:      books,
		compressor: compressor,
		embeds:     embeds,
		retrieval:  engine,
		pipeline:   pipeline,
		tasks:      tasks,
		logger:     slog.Default().With("component", "engine"),
	}, nil
}

// Search runs one free-text query through retrieval and ranking.
func (e *Engine) Search(ctx context.Context, query string) (*ranking.Result, error) {
	return e.pipeline.Search(ctx, query)
}

// RebuildProfiles rebuilds the codebooks and every compact profile.
func (e *Engine) RebuildProfiles(ctx context.Context) (int, error) {
	return e.compressor.RebuildAll(ctx)
}

// PrecomputeEmbeddings recomputes every entity embedding.
func (e *Engine) PrecomputeEmbeddings(ctx context.Context) (int, error) {
	return e.embeds.PrecomputeAll(ctx)
}

// Codebooks returns the current codebooks.
func (e *Engine) Codebooks(ctx context.Context) *core.Codebooks {
	return e.books.Get(ctx)
}

// RebuildCodebooks regenerates the codebooks and drops every cached
// compact profile, so no profile can carry codes from a prior generation.
// Profiles regenerate lazily on the next lookup; use RebuildProfiles to
// regenerate them eagerly.
func (e *Engine) RebuildCodebooks(ctx context.Context) (*core.Codebooks, error) {
	books, err := e.books.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	e.compressor.Invalidate(ctx)
	return books, nil
}

// CacheStats reports backend cache statistics.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Close drains background tasks and releases every owned resource.
func (e *Engine) Close() error {
	e.tasks.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing store", "err", err)
		return err
	}
	if err := e.cache.Close(); err != nil {
		e.logger.Error("error closing cache", "err", err)
		return err
	}
	return nil
}

func closeAll(err error, provider ai.Provider, st store.Reader, cm *cache.Manager) error {
	provider.Close()
	st.Close()
	cm.Close()
	return err
}
