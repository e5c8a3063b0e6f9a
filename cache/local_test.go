package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackend_GetSet(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend()

	require.NoError(t, b.Set(ctx, "k", []byte("v"), 0))

	got, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok, err = b.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalBackend_EvictionBound(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend(WithMaxEntries(10))

	for i := 0; i < 50; i++ {
		require.NoError(t, b.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0))
		assert.LessOrEqual(t, b.Len(), 10)
	}
	assert.Equal(t, 10, b.Len())
}

func TestLocalBackend_EvictsLeastRecentlyAccessed(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend(WithMaxEntries(2))

	require.NoError(t, b.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, b.Set(ctx, "b", []byte("2"), 0))

	// Touch "a" so "b" becomes the eviction target
	_, _, err := b.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, b.Set(ctx, "c", []byte("3"), 0))

	_, ok, _ := b.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = b.Get(ctx, "b")
	assert.False(t, ok)
}

func TestLocalBackend_DualTTL(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	b := NewLocalBackend(WithWriteTTL(time.Hour), WithAccessTTL(10*time.Minute))
	b.now = func() time.Time { return clock }

	require.NoError(t, b.Set(ctx, "k", []byte("v"), 0))

	t.Run("idle-age expiry", func(t *testing.T) {
		clock = clock.Add(11 * time.Minute)
		_, ok, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("write-age expiry despite access", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "k2", []byte("v"), 0))
		// Keep touching the entry so idle-age never trips
		for i := 0; i < 8; i++ {
			clock = clock.Add(9 * time.Minute)
			b.Get(ctx, "k2")
		}
		_, ok, err := b.Get(ctx, "k2")
		require.NoError(t, err)
		assert.False(t, ok, "write-age past one hour must expire the entry")
	})

	t.Run("per-entry ttl expiry", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "k3", []byte("v"), time.Minute))
		clock = clock.Add(2 * time.Minute)
		_, ok, err := b.Get(ctx, "k3")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLocalBackend_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend()

	require.NoError(t, b.Set(ctx, "profile:1", []byte("a"), 0))
	require.NoError(t, b.Set(ctx, "profile:2", []byte("b"), 0))
	require.NoError(t, b.Set(ctx, "other:1", []byte("c"), 0))

	require.NoError(t, b.DeletePrefix(ctx, "profile:"))

	_, ok, _ := b.Get(ctx, "profile:1")
	assert.False(t, ok)
	_, ok, _ = b.Get(ctx, "other:1")
	assert.True(t, ok)
}

func TestLocalBackend_IncrementAndSets(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend()

	n, err := b.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = b.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, b.Set(ctx, "text", []byte("not a number"), 0))
	_, err = b.Increment(ctx, "text")
	assert.ErrorIs(t, err, ErrNotCounter)

	require.NoError(t, b.AddToSet(ctx, "ids", "1"))
	require.NoError(t, b.AddToSet(ctx, "ids", "2"))
	require.NoError(t, b.AddToSet(ctx, "ids", "1")) // duplicate ignored

	members, err := b.SetMembers(ctx, "ids")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, members)
}

func TestLocalBackend_Stats(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend()

	b.Set(ctx, "k", []byte("v"), 0)
	b.Get(ctx, "k")
	b.Get(ctx, "missing")

	stats := b.Stats()
	assert.Equal(t, "local", stats.Backend)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Entries)
}

func TestLocalBackend_ConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend()

	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, err := b.Increment(ctx, "counter")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, err := b.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine+1), n)
}

func TestLocalBackend_ConcurrentAddToSet(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend()

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				member := fmt.Sprintf("%d-%d", g, j)
				assert.NoError(t, b.AddToSet(ctx, "ids", member))
			}
		}(i)
	}
	wg.Wait()

	members, err := b.SetMembers(ctx, "ids")
	require.NoError(t, err)
	assert.Len(t, members, goroutines*perGoroutine)
}
