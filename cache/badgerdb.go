package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// BadgerBackend is a disk-backed cache backend for single-node deployments
// that run without a redis server but want entries to survive restarts.
// TTLs map onto badger's native entry expiry.
type BadgerBackend struct {
	db     *badger.DB
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// NewBadgerBackend opens a badger database at filePath, creating the
// directory if needed. With inMemory set, no files are written; this mode
// backs tests.
func NewBadgerBackend(filePath string, inMemory bool) (*BadgerBackend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidConfig, filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerBackend{
		db:     db,
		logger: slog.Default().With("component", "cache-badger"),
	}, nil
}

var _ Backend = (*BadgerBackend)(nil)

// Get returns the value at key. Expired entries read as misses.
func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		b.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		b.misses.Add(1)
		return nil, false, err
	}
	b.hits.Add(1)
	return value, true, nil
}

// Set stores value with badger's native TTL.
func (b *BadgerBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return b.db.Update(func(tx *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return tx.SetEntry(entry)
	})
}

// Delete removes key.
func (b *BadgerBackend) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(key))
	})
}

// DeletePrefix removes every key with the given prefix.
func (b *BadgerBackend) DeletePrefix(_ context.Context, prefix string) error {
	return b.db.DropPrefix([]byte(prefix))
}

// Clear removes all entries.
func (b *BadgerBackend) Clear(_ context.Context) error {
	return b.db.DropAll()
}

// Increment increments the counter at key inside one transaction.
func (b *BadgerBackend) Increment(_ context.Context, key string) (int64, error) {
	var n int64
	err := b.db.Update(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err == nil {
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			n, err = strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				return ErrNotCounter
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		n++
		return tx.Set([]byte(key), []byte(strconv.FormatInt(n, 10)))
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// AddToSet adds member to the newline-joined set stored at key.
func (b *BadgerBackend) AddToSet(ctx context.Context, key, member string) error {
	members, err := b.SetMembers(ctx, key)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m == member {
			return nil
		}
	}
	members = append(members, member)
	return b.Set(ctx, key, []byte(strings.Join(members, "\n")), 0)
}

// SetMembers returns the members of the set stored at key.
func (b *BadgerBackend) SetMembers(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := b.Get(ctx, key)
	if err != nil || !ok || len(raw) == 0 {
		return nil, err
	}
	return strings.Split(string(raw), "\n"), nil
}

// Stats returns hit/miss counters. Counting live entries needs a full
// iteration, so the count is reported as unknown.
func (b *BadgerBackend) Stats() Stats {
	return Stats{
		Backend: "badger",
		Hits:    b.hits.Load(),
		Misses:  b.misses.Load(),
		Entries: -1,
	}
}

// Close closes the database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
