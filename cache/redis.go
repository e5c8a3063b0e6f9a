package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is the networked cache backend over the redis wire protocol.
type RedisBackend struct {
	client *redis.Client
	hits   atomic.Int64
	misses atomic.Int64
}

// RedisConfig holds connection settings for the networked backend.
type RedisConfig struct {
	// Addr is the host:port of the redis server.
	// Default: "localhost:6379"
	Addr string

	// Password is optional.
	Password string

	// DB selects the redis logical database.
	DB int

	// DialTimeout bounds the startup connectivity test.
	// Default: 2 seconds
	DialTimeout time.Duration
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:        "localhost:6379",
		DialTimeout: 2 * time.Second,
	}
}

// NewRedisBackend connects to redis and verifies connectivity with a ping.
// An unreachable server fails here, letting Connect fall back to the
// local backend.
func NewRedisBackend(ctx context.Context, cfg *RedisConfig) (*RedisBackend, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}
	if cfg.Addr == "" {
		return nil, ErrInvalidConfig
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisBackend{client: client}, nil
}

var _ Backend = (*RedisBackend)(nil)

// Get returns the value at key.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		b.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		b.misses.Add(1)
		return nil, false, err
	}
	b.hits.Add(1)
	return raw, true, nil
}

// Set stores value with the given TTL. Zero TTL stores without expiry.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes key.
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

// DeletePrefix removes every key matching prefix* via cursor scans,
// deleting in batches to keep commands bounded.
func (b *RedisBackend) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := b.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Clear flushes the selected logical database.
func (b *RedisBackend) Clear(ctx context.Context) error {
	return b.client.FlushDB(ctx).Err()
}

// Increment atomically increments the counter at key.
func (b *RedisBackend) Increment(ctx context.Context, key string) (int64, error) {
	return b.client.Incr(ctx, key).Result()
}

// AddToSet adds member to the redis set at key.
func (b *RedisBackend) AddToSet(ctx context.Context, key, member string) error {
	return b.client.SAdd(ctx, key, member).Err()
}

// SetMembers returns the members of the redis set at key.
func (b *RedisBackend) SetMembers(ctx context.Context, key string) ([]string, error) {
	return b.client.SMembers(ctx, key).Result()
}

// Stats returns client-side hit/miss counters. The entry count would need
// a DBSIZE round-trip, so it is reported as unknown.
func (b *RedisBackend) Stats() Stats {
	return Stats{
		Backend: "redis",
		Hits:    b.hits.Load(),
		Misses:  b.misses.Load(),
		Entries: -1,
	}
}

// Close closes the client connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
