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


// Package codebook maintains generation-scoped maps from raw categorical
// values (departments, designations, locations, projects) to short codes
// used in compact profile encoding.
package codebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store"
)

// CacheKey is the single cache slot holding the current codebooks.
// Rebuild replaces the whole value; there is no per-entry update.
const CacheKey = "codebooks:current"

const codebookTTL = 24 * time.Hour

// DefaultMaxCodeLen bounds generated short codes, numeric suffix included.
const DefaultMaxCodeLen = 4

var (
	ErrStoreRequired = errors.New("store is required")
	ErrCacheRequired = errors.New("cache manager is required")
)

// Service builds and serves the current codebooks. A rebuilt set is written
// to cache as one full-replace value and mirrored in memory so reads survive
// a degraded cache.
type Service struct {
	store      store.Reader
	cache      *cache.Manager
	maxCodeLen int
	logger     *slog.Logger

	mu      sync.RWMutex
	current *core.Codebooks
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMaxCodeLen overrides the short-code length bound.
func WithMaxCodeLen(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCodeLen = n
		}
	}
}

// NewService creates a codebook service over the given store and cache.
func NewService(st store.Reader, cm *cache.Manager, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if cm == nil {
		return nil, ErrCacheRequired
	}

	s := &Service{
		store:      st,
		cache:      cm,
		maxCodeLen: DefaultMaxCodeLen,
		logger:     slog.Default().With("component", "codebook"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Rebuild reads the distinct raw values of every dimension from the store,
// assigns collision-free short codes, and replaces the cached codebooks.
// The generation timestamp is bumped so prior encodings can be told apart.
func (s *Service) Rebuild(ctx context.Context) (*core.Codebooks, error) {
	books := core.EmptyCodebooks()
	books.Generation = time.Now().UTC()

	for _, dim := range store.Dimensions {
		values, err := s.store.DistinctValues(ctx, dim)
		if err != nil {
			return nil, fmt.Errorf("distinct values for %s: %w", dim, err)
		}
		assigned := s.assignCodes(values)

		switch dim {
		case store.DimensionDepartment:
			books.Departments = assigned
		case store.DimensionDesignation:
			books.Designations = assigned
		case store.DimensionLocation:
			books.Locations = assigned
		case store.DimensionProject:
			books.Projects = assigned
		}
	}

	s.mu.Lock()
	s.current = books
	s.mu.Unlock()

	if !s.cache.Set(ctx, CacheKey, books, codebookTTL) {
		s.logger.Warn("codebook cache write degraded, serving from memory")
	}

	s.logger.Info("codebooks rebuilt",
		"departments", len(books.Departments),
		"designations", len(books.Designations),
		"locations", len(books.Locations),
		"projects", len(books.Projects))
	return books, nil
}

// Get returns the current codebooks. If no rebuild ever ran, all four maps
// are empty and no error is returned.
func (s *Service) Get(ctx context.Context) *core.Codebooks {
	var books core.Codebooks
	if s.cache.Get(ctx, CacheKey, &books) {
		return &books
	}

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil {
		return current
	}
	return core.EmptyCodebooks()
}

// assignCodes maps every raw value to a short code, resolving collisions
// with a numeric suffix truncated to fit the length bound.
func (s *Service) assignCodes(values []string) map[string]string {
	out := make(map[string]string, len(values))
	taken := make(map[string]bool, len(values))

	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}

		code := Acronym(trimmed, s.maxCodeLen)
		if code == "" {
			code = "X"
		}
		if taken[code] {
			code = s.resolveCollision(code, taken)
		}
		taken[code] = true
		out[trimmed] = code
	}
	return out
}

func (s *Service) resolveCollision(base string, taken map[string]bool) string {
	for suffix := 2; ; suffix++ {
		tail := strconv.Itoa(suffix)
		keep := s.maxCodeLen - len(tail)
		if keep < 1 {
			keep = 1
		}
		head := base
		if len(head) > keep {
			head = head[:keep]
		}
		candidate := head + tail
		if !taken[candidate] {
			return candidate
		}
	}
}

// Acronym derives a short uppercase code from a raw value: first letters of
// words for multi-word values, a prefix for single words, capped at maxLen.
func Acronym(value string, maxLen int) string {
	words := strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	switch {
	case len(words) > 1:
		for _, w := range words {
			if b.Len() >= maxLen {
				break
			}
			b.WriteRune(unicode.ToUpper([]rune(w)[0]))
		}
	case len(words) == 1:
		for _, r := range words[0] {
			if b.Len() >= maxLen {
				break
			}
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
