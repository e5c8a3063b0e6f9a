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


// Package embedcache precomputes and serves embedding vectors for employee
// records and query text. Vectors live in the cache with long TTLs; the
// query path never waits on a bulk rebuild, it detects the in-progress
// marker and falls back instead.
package embedcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store"
)

const (
	entityPrefix = "embed:entity:"
	queryPrefix  = "embed:query:"

	// MetadataKey holds the introspection record for the last precompute.
	MetadataKey = "embed:meta"

	// RebuildMarkerKey signals a precompute in progress. Short-lived so a
	// crashed rebuild cannot wedge the query path.
	RebuildMarkerKey = "embed:rebuilding"

	idSetKey = "embed:ids"
)

var (
	ErrStoreRequired    = errors.New("store is required")
	ErrCacheRequired    = errors.New("cache manager is required")
	ErrEmbedderRequired = errors.New("embedder is required")
)

// EntityEmbedding is one cached employee vector with the text snapshot it
// was computed from.
type EntityEmbedding struct {
	EmployeeID core.ID   `json:"employee_id"`
	Vector     []float32 `json:"vector"`
	Snapshot   string    `json:"snapshot"`
	ComputedAt time.Time `json:"computed_at"`
}

// Metadata describes the last completed precompute run.
type Metadata struct {
	Count      int       `json:"count"`
	ComputedAt time.Time `json:"computed_at"`
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
}

// Config holds embedding cache tuning knobs.
type Config struct {
	BatchSize int
	EntityTTL time.Duration // Long TTL on per-entity vectors
	QueryTTL  time.Duration // Short TTL on cached query vectors
	MarkerTTL time.Duration // Lifetime of the rebuild-in-progress marker
	ModelName string        // Recorded in metadata only
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize: 50,
		EntityTTL: 7 * 24 * time.Hour,
		QueryTTL:  15 * time.Minute,
		MarkerTTL: 10 * time.Minute,
		ModelName: "embeddinggemma",
	}
}

// Service owns the embedding cache.
type Service struct {
	store    store.Reader
	cache    *cache.Manager
	embedder ai.Embedder
	config   Config
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// NewService creates an embedding cache service.
func NewService(st store.Reader, cm *cache.Manager, embedder ai.Embedder, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if cm == nil {
		return nil, ErrCacheRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Service{
		store:    st,
		cache:    cm,
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default().With("component", "embedcache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.BatchSize < 1 {
		s.config.BatchSize = 1
	}
	return s, nil
}

// EntityKey returns the cache key for one employee's vector.
func EntityKey(id core.ID) string {
	return entityPrefix + strconv.FormatInt(int64(id), 10)
}

// PrecomputeAll embeds every employee in batches and stores the vectors.
// The rebuild marker is set first and cleared on every exit path so the
// query path can always tell whether a rebuild is running.
func (s *Service) PrecomputeAll(ctx context.Context) (int, error) {
	s.cache.Set(ctx, RebuildMarkerKey, true, s.config.MarkerTTL)
	defer s.cache.Delete(context.WithoutCancel(ctx), RebuildMarkerKey)

	employees, err := s.store.AllEmployees(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: loading all employees: %w", core.ErrUpstreamUnavailable, err)
	}

	count := 0
	dims := 0
	for start := 0; start < len(employees); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(employees) {
			end = len(employees)
		}
		batch := employees[start:end]

		blobs := make([]string, len(batch))
		for i, emp := range batch {
			blobs[i] = EntityBlob(emp)
		}

		vectors, err := s.embedder.EmbedTexts(ctx, blobs)
		if err != nil {
			return count, fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return count, fmt.Errorf("%w: embedder returned %d vectors for %d texts", core.ErrValidation, len(vectors), len(batch))
		}

		now := time.Now().UTC()
		for i, emp := range batch {
			entry := EntityEmbedding{
				EmployeeID: emp.ID,
				Vector:     vectors[i],
				Snapshot:   blobs[i],
				ComputedAt: now,
			}
			s.cache.Set(ctx, EntityKey(emp.ID), entry, s.config.EntityTTL)
			s.cache.AddToSet(ctx, idSetKey, strconv.FormatInt(int64(emp.ID), 10))
			count++
			if dims == 0 {
				dims = len(vectors[i])
			}
		}
	}

	s.cache.Set(ctx, MetadataKey, Metadata{
		Count:      count,
		ComputedAt: time.Now().UTC(),
		Model:      s.config.ModelName,
		Dimensions: dims,
	}, s.config.EntityTTL)

	s.logger.Info("embeddings precomputed", "count", count, "dimensions", dims)
	return count, nil
}

// QueryEmbedding returns the vector for query text. Cached queries are
// matched exactly on a normalized hash. On a miss during a rebuild it
// returns (nil, false, nil) immediately so the caller falls back to
// non-vector retrieval instead of blocking.
func (s *Service) QueryEmbedding(ctx context.Context, query string) ([]float32, bool, error) {
	key := queryKey(query)

	var cached []float32
	if s.cache.Get(ctx, key, &cached) && len(cached) > 0 {
		return cached, true, nil
	}

	var marker bool
	if s.cache.Get(ctx, RebuildMarkerKey, &marker) && marker {
		s.logger.Debug("embedding rebuild in progress, skipping query embedding")
		return nil, false, nil
	}

	vector, err := s.embedder.EmbedText(ctx, normalizeQuery(query))
	if err != nil {
		return nil, false, fmt.Errorf("embedding query: %w", err)
	}

	s.cache.Set(ctx, key, vector, s.config.QueryTTL)
	return vector, true, nil
}

// AllEntityEmbeddings bulk-reads every cached entity vector, skipping
// entries that are missing or fail to decode.
func (s *Service) AllEntityEmbeddings(ctx context.Context) ([]EntityEmbedding, error) {
	members := s.cache.SetMembers(ctx, idSetKey)

	out := make([]EntityEmbedding, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		var entry EntityEmbedding
		if !s.cache.Get(ctx, EntityKey(core.ID(id)), &entry) {
			continue
		}
		if len(entry.Vector) == 0 {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Metadata returns the record of the last precompute, or false when none.
func (s *Service) Metadata(ctx context.Context) (Metadata, bool) {
	var meta Metadata
	ok := s.cache.Get(ctx, MetadataKey, &meta)
	return meta, ok
}

// Invalidate removes every entity vector, the id set, and the metadata.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.DeletePrefix(ctx, entityPrefix)
	s.cache.DeletePrefix(ctx, queryPrefix)
	s.cache.Delete(ctx, idSetKey)
	s.cache.Delete(ctx, MetadataKey)
	s.logger.Info("embedding cache invalidated")
}

// EntityBlob builds the descriptive text embedded for one employee.
func EntityBlob(emp *core.Employee) string {
	var parts []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			parts = append(parts, label+": "+v)
		}
	}

	add("Name", emp.Name)
	add("Designation", emp.Designation)
	add("Department", emp.Department)
	add("Location", emp.Location)
	add("Skills", emp.Skills)
	add("Experience", emp.TotalExperience)

	var projects []string
	for _, e := range emp.Engagements {
		if p := strings.TrimSpace(e.Project); p != "" {
			projects = append(projects, p)
		}
	}
	if len(projects) > 0 {
		add("Projects", strings.Join(projects, ", "))
	}
	return strings.Join(parts, ". ")
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func queryKey(query string) string {
	id := core.IDFromContent(normalizeQuery(query))
	return queryPrefix + strconv.FormatUint(uint64(id), 16)
}
