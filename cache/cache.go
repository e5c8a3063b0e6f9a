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


package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Backend is a pluggable key/value store with TTL support. Implementations
// must be safe for concurrent use. All values are opaque byte slices; the
// Manager handles JSON encoding above this interface.
type Backend interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Increment atomically increments the integer at key, creating it at 1.
	Increment(ctx context.Context, key string) (int64, error)

	// AddToSet adds member to the set stored at key.
	AddToSet(ctx context.Context, key, member string) error

	// SetMembers returns the members of the set stored at key.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Stats returns backend counters.
	Stats() Stats

	// Close releases backend resources.
	Close() error
}

// Stats holds cache counters for introspection.
type Stats struct {
	Backend string `json:"backend"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Entries int64  `json:"entries"` // -1 when the backend cannot count cheaply
}

// Manager wraps a Backend with JSON value encoding and miss-on-error
// semantics: any I/O failure after startup degrades to a cache miss or
// false return, never an error surfaced to the caller. time.Time fields
// round-trip as RFC 3339 strings via encoding/json.
type Manager struct {
	backend Backend
	logger  *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// NewManager wraps the given backend. Use Connect to pick a backend with
// automatic fallback.
func NewManager(backend Backend, opts ...ManagerOption) (*Manager, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}

	m := &Manager{
		backend: backend,
		logger:  slog.Default().With("component", "cache"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get unmarshals the value at key into dest. Returns false on miss,
// expiry, decode failure, or backend error.
func (m *Manager) Get(ctx context.Context, key string, dest any) bool {
	raw, ok, err := m.backend.Get(ctx, key)
	if err != nil {
		m.logger.Warn("cache get degraded to miss", "key", key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		m.logger.Warn("cache entry undecodable, treating as miss", "key", key, "err", err)
		return false
	}
	return true
}

// Set marshals value and stores it under key. Returns false on failure.
func (m *Manager) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		m.logger.Warn("cache set skipped, value not encodable", "key", key, "err", err)
		return false
	}
	if err := m.backend.Set(ctx, key, raw, ttl); err != nil {
		m.logger.Warn("cache set failed", "key", key, "err", err)
		return false
	}
	return true
}

// Delete removes key. Returns false on backend failure.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	if err := m.backend.Delete(ctx, key); err != nil {
		m.logger.Warn("cache delete failed", "key", key, "err", err)
		return false
	}
	return true
}

// DeletePrefix removes every key under prefix. Returns false on failure.
func (m *Manager) DeletePrefix(ctx context.Context, prefix string) bool {
	if err := m.backend.DeletePrefix(ctx, prefix); err != nil {
		m.logger.Warn("cache prefix delete failed", "prefix", prefix, "err", err)
		return false
	}
	return true
}

// Clear removes all entries. Returns false on failure.
func (m *Manager) Clear(ctx context.Context) bool {
	if err := m.backend.Clear(ctx); err != nil {
		m.logger.Warn("cache clear failed", "err", err)
		return false
	}
	return true
}

// Increment atomically increments the counter at key.
// Returns 0 on backend failure.
func (m *Manager) Increment(ctx context.Context, key string) int64 {
	n, err := m.backend.Increment(ctx, key)
	if err != nil {
		m.logger.Warn("cache increment failed", "key", key, "err", err)
		return 0
	}
	return n
}

// AddToSet adds member to the set at key. Returns false on failure.
func (m *Manager) AddToSet(ctx context.Context, key, member string) bool {
	if err := m.backend.AddToSet(ctx, key, member); err != nil {
		m.logger.Warn("cache set-add failed", "key", key, "err", err)
		return false
	}
	return true
}

// SetMembers returns the members of the set at key, nil on failure.
func (m *Manager) SetMembers(ctx context.Context, key string) []string {
	members, err := m.backend.SetMembers(ctx, key)
	if err != nil {
		m.logger.Warn("cache set-members failed", "key", key, "err", err)
		return nil
	}
	return members
}

// Stats returns backend counters.
func (m *Manager) Stats() Stats {
	return m.backend.Stats()
}

// Close releases the underlying backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
