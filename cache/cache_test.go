package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend simulates a backend whose every call fails after startup.
type failingBackend struct{}

var errDown = errors.New("backend down")

func (f *failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errDown
}
func (f *failingBackend) Set(context.Context, string, []byte, time.Duration) error { return errDown }
func (f *failingBackend) Delete(context.Context, string) error                     { return errDown }
func (f *failingBackend) DeletePrefix(context.Context, string) error               { return errDown }
func (f *failingBackend) Clear(context.Context) error                              { return errDown }
func (f *failingBackend) Increment(context.Context, string) (int64, error)         { return 0, errDown }
func (f *failingBackend) AddToSet(context.Context, string, string) error           { return errDown }
func (f *failingBackend) SetMembers(context.Context, string) ([]string, error)     { return nil, errDown }
func (f *failingBackend) Stats() Stats                                             { return Stats{Backend: "failing"} }
func (f *failingBackend) Close() error                                             { return nil }

func TestNewManager(t *testing.T) {
	t.Run("nil backend rejected", func(t *testing.T) {
		_, err := NewManager(nil)
		assert.Equal(t, ErrBackendRequired, err)
	})

	t.Run("valid backend", func(t *testing.T) {
		m, err := NewManager(NewLocalBackend())
		require.NoError(t, err)
		assert.NotNil(t, m)
	})
}

func TestManager_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(NewLocalBackend())
	require.NoError(t, err)

	type payload struct {
		Name string    `json:"name"`
		When time.Time `json:"when"`
	}

	in := payload{Name: "x", When: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
	require.True(t, m.Set(ctx, "p", in, 0))

	var out payload
	require.True(t, m.Get(ctx, "p", &out))
	assert.Equal(t, in.Name, out.Name)
	assert.True(t, in.When.Equal(out.When), "timestamps must survive the JSON round trip")
}

func TestManager_MissOnAbsent(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(NewLocalBackend())
	require.NoError(t, err)

	var out string
	assert.False(t, m.Get(ctx, "nothing", &out))
}

func TestManager_DegradesOnBackendFailure(t *testing.T) {
	// Every call must return a miss or false, never panic or error out.
	ctx := context.Background()
	m, err := NewManager(&failingBackend{})
	require.NoError(t, err)

	var out string
	assert.False(t, m.Get(ctx, "k", &out))
	assert.False(t, m.Set(ctx, "k", "v", 0))
	assert.False(t, m.Delete(ctx, "k"))
	assert.False(t, m.DeletePrefix(ctx, "k"))
	assert.False(t, m.Clear(ctx))
	assert.Equal(t, int64(0), m.Increment(ctx, "k"))
	assert.False(t, m.AddToSet(ctx, "k", "m"))
	assert.Nil(t, m.SetMembers(ctx, "k"))
}

func TestConnect_AutoFallsBackToLocal(t *testing.T) {
	// Point at a port nothing listens on; Connect must succeed anyway.
	cfg := DefaultConfig()
	cfg.Redis.Addr = "localhost:1"
	cfg.Redis.DialTimeout = 200 * time.Millisecond

	m, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "local", m.Stats().Backend)

	ctx := context.Background()
	assert.True(t, m.Set(ctx, "k", "v", 0))
	var out string
	assert.True(t, m.Get(ctx, "k", &out))
	assert.Equal(t, "v", out)
}

func TestConnect_ConfigErrors(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		_, err := Connect(context.Background(), &Config{Mode: "bogus"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("disk mode without path", func(t *testing.T) {
		_, err := Connect(context.Background(), &Config{Mode: ModeDisk})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("required redis unreachable", func(t *testing.T) {
		cfg := &Config{Mode: ModeRedis, Redis: &RedisConfig{Addr: "localhost:1", DialTimeout: 200 * time.Millisecond}}
		_, err := Connect(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestBadgerBackend_InMemory(t *testing.T) {
	ctx := context.Background()
	b, err := NewBadgerBackend("", true)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Set(ctx, "k", []byte("v"), 0))
	got, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	n, err := b.Increment(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, b.Set(ctx, "pre:1", []byte("a"), 0))
	require.NoError(t, b.Set(ctx, "pre:2", []byte("b"), 0))
	require.NoError(t, b.DeletePrefix(ctx, "pre:"))
	_, ok, _ = b.Get(ctx, "pre:1")
	assert.False(t, ok)
}
