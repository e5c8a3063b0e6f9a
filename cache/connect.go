package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// Mode selects the backend connection strategy.
type Mode string

const (
	// ModeAuto tries redis and silently falls back to the local backend.
	ModeAuto Mode = "auto"
	// ModeRedis requires the networked backend; startup fails if unreachable.
	ModeRedis Mode = "redis"
	// ModeLocal always uses the bounded in-process backend.
	ModeLocal Mode = "local"
	// ModeDisk uses the badger-backed persistent backend.
	ModeDisk Mode = "disk"
)

// Config holds backend selection settings for Connect.
type Config struct {
	// Mode selects the strategy. Default: ModeAuto.
	Mode Mode

	// Redis configures the networked backend for ModeAuto and ModeRedis.
	Redis *RedisConfig

	// DiskPath is the badger directory for ModeDisk.
	DiskPath string

	// Local options apply to the fallback and ModeLocal backends.
	LocalOptions []LocalOption
}

// DefaultConfig returns a Config that auto-selects with default redis
// settings.
func DefaultConfig() *Config {
	return &Config{
		Mode:  ModeAuto,
		Redis: DefaultRedisConfig(),
	}
}

// Connect builds a Manager for the configured backend. Selection never
// fails in ModeAuto: an unreachable redis degrades to the local backend
// with a warning. Configuration errors (unknown mode, missing disk path)
// do fail, as startup errors are the one class that must surface.
func Connect(ctx context.Context, cfg *Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := slog.Default().With("component", "cache")

	var backend Backend
	switch cfg.Mode {
	case ModeAuto, "":
		redisBackend, err := NewRedisBackend(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("networked cache unreachable, using in-process fallback", "err", err)
			backend = NewLocalBackend(cfg.LocalOptions...)
		} else {
			backend = redisBackend
		}
	case ModeRedis:
		redisBackend, err := NewRedisBackend(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("%w: redis required but unreachable: %w", ErrInvalidConfig, err)
		}
		backend = redisBackend
	case ModeLocal:
		backend = NewLocalBackend(cfg.LocalOptions...)
	case ModeDisk:
		if cfg.DiskPath == "" {
			return nil, fmt.Errorf("%w: disk mode requires a path", ErrInvalidConfig)
		}
		badgerBackend, err := NewBadgerBackend(cfg.DiskPath, false)
		if err != nil {
			return nil, err
		}
		backend = badgerBackend
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
	}

	return NewManager(backend, opts...)
}
