package cache

import (
	"container/list"
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultLocalMaxEntries = 4096
	defaultWriteTTL        = 30 * time.Minute
	defaultAccessTTL       = 10 * time.Minute
)

// localEntry is one cached value with the timestamps eviction needs.
type localEntry struct {
	key        string
	value      []byte
	writtenAt  time.Time
	lastAccess time.Time
	expiresAt  time.Time // Per-entry TTL from Set; zero means none
}

// LocalBackend is a bounded in-process cache used when no networked
// backend is reachable. Eviction is least-recently-accessed at capacity;
// reads lazily expire entries whose write-age exceeds the write TTL or
// whose idle-age exceeds the access TTL.
type LocalBackend struct {
	mu         sync.Mutex
	entries    map[string]*list.Element // key -> element holding *localEntry
	order      *list.List               // Front is most recently accessed
	maxEntries int
	writeTTL   time.Duration
	accessTTL  time.Duration
	hits       int64
	misses     int64
	now        func() time.Time
}

// LocalOption configures a LocalBackend.
type LocalOption func(*LocalBackend)

// WithMaxEntries bounds the entry count. Default is 4096.
func WithMaxEntries(n int) LocalOption {
	return func(b *LocalBackend) {
		if n > 0 {
			b.maxEntries = n
		}
	}
}

// WithWriteTTL sets the maximum write-age before lazy expiry.
// Default is 30 minutes.
func WithWriteTTL(d time.Duration) LocalOption {
	return func(b *LocalBackend) {
		if d > 0 {
			b.writeTTL = d
		}
	}
}

// WithAccessTTL sets the maximum idle-age before lazy expiry.
// Default is 10 minutes.
func WithAccessTTL(d time.Duration) LocalOption {
	return func(b *LocalBackend) {
		if d > 0 {
			b.accessTTL = d
		}
	}
}

// NewLocalBackend creates an in-process LRU backend.
func NewLocalBackend(opts ...LocalOption) *LocalBackend {
	b := &LocalBackend{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: defaultLocalMaxEntries,
		writeTTL:   defaultWriteTTL,
		accessTTL:  defaultAccessTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Backend = (*LocalBackend)(nil)

// Get returns the value for key, lazily expiring stale entries.
func (b *LocalBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elem, ok := b.entries[key]
	if !ok {
		b.misses++
		return nil, false, nil
	}

	entry := elem.Value.(*localEntry)
	if b.expired(entry) {
		b.removeLocked(elem)
		b.misses++
		return nil, false, nil
	}

	entry.lastAccess = b.now()
	b.order.MoveToFront(elem)
	b.hits++
	return entry.value, true, nil
}

// Set stores value under key, evicting the least-recently-accessed entry
// when at capacity.
func (b *LocalBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setLocked(key, value, ttl)
	return nil
}

// setLocked writes an entry; caller holds b.mu. Read-modify-write
// operations go through this so the whole cycle stays under one lock hold.
func (b *LocalBackend) setLocked(key string, value []byte, ttl time.Duration) {
	now := b.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	if elem, ok := b.entries[key]; ok {
		entry := elem.Value.(*localEntry)
		entry.value = value
		entry.writtenAt = now
		entry.lastAccess = now
		entry.expiresAt = expiresAt
		b.order.MoveToFront(elem)
		return
	}

	for len(b.entries) >= b.maxEntries {
		oldest := b.order.Back()
		if oldest == nil {
			break
		}
		b.removeLocked(oldest)
	}

	entry := &localEntry{
		key:        key,
		value:      value,
		writtenAt:  now,
		lastAccess: now,
		expiresAt:  expiresAt,
	}
	b.entries[key] = b.order.PushFront(entry)
}

// Delete removes key.
func (b *LocalBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if elem, ok := b.entries[key]; ok {
		b.removeLocked(elem)
	}
	return nil
}

// DeletePrefix removes every key with the given prefix.
func (b *LocalBackend) DeletePrefix(_ context.Context, prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, elem := range b.entries {
		if strings.HasPrefix(key, prefix) {
			b.removeLocked(elem)
		}
	}
	return nil
}

// Clear removes all entries.
func (b *LocalBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]*list.Element)
	b.order.Init()
	return nil
}

// Increment increments the integer stored at key, creating it at 1.
// The counter inherits the write TTL like any other entry. The read and
// the write happen under one lock hold so concurrent increments never
// lose an update.
func (b *LocalBackend) Increment(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	if elem, ok := b.entries[key]; ok {
		entry := elem.Value.(*localEntry)
		if !b.expired(entry) {
			parsed, err := strconv.ParseInt(string(entry.value), 10, 64)
			if err != nil {
				return 0, ErrNotCounter
			}
			n = parsed
		}
	}
	n++
	b.setLocked(key, []byte(strconv.FormatInt(n, 10)), 0)
	return n, nil
}

// AddToSet adds member to the newline-joined set stored at key. Like
// Increment, the membership check and the write share one lock hold.
func (b *LocalBackend) AddToSet(_ context.Context, key, member string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var members []string
	if elem, ok := b.entries[key]; ok {
		entry := elem.Value.(*localEntry)
		if !b.expired(entry) && len(entry.value) > 0 {
			members = strings.Split(string(entry.value), "\n")
		}
	}
	for _, m := range members {
		if m == member {
			return nil
		}
	}
	members = append(members, member)
	b.setLocked(key, []byte(strings.Join(members, "\n")), 0)
	return nil
}

// SetMembers returns the members of the set stored at key.
func (b *LocalBackend) SetMembers(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := b.Get(ctx, key)
	if err != nil || !ok || len(raw) == 0 {
		return nil, err
	}
	return strings.Split(string(raw), "\n"), nil
}

// Stats returns hit/miss counters and the live entry count.
func (b *LocalBackend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Backend: "local",
		Hits:    b.hits,
		Misses:  b.misses,
		Entries: int64(len(b.entries)),
	}
}

// Close is a no-op for the in-process backend.
func (b *LocalBackend) Close() error {
	return nil
}

// Len returns the current entry count, for tests.
func (b *LocalBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *LocalBackend) expired(e *localEntry) bool {
	now := b.now()
	if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
		return true
	}
	if now.Sub(e.writtenAt) > b.writeTTL {
		return true
	}
	return now.Sub(e.lastAccess) > b.accessTTL
}

// removeLocked removes the element; caller holds b.mu.
func (b *LocalBackend) removeLocked(elem *list.Element) {
	entry := elem.Value.(*localEntry)
	delete(b.entries, entry.key)
	b.order.Remove(elem)
}
