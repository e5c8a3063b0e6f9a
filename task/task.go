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


// Package task runs fire-and-forget background work on a bounded worker
// pool with automatic retry. It carries bulk rebuild triggers and async
// ranked-result cache writes off the query path.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

var (
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be positive")
	ErrQueueClosed        = errors.New("task queue is closed")
)

const (
	defaultPoolSize    = 8
	defaultMaxAttempts = 3
	defaultBaseDelay   = 200 * time.Millisecond
)

// Queue schedules background tasks on an ants pool. Every task gets a
// bounded number of attempts with exponential backoff; permanent failures
// are logged, never surfaced to the submitter.
type Queue struct {
	pool        *ants.Pool
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithMaxAttempts overrides the per-task attempt bound.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithBaseDelay overrides the first retry delay.
func WithBaseDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.baseDelay = d
		}
	}
}

// NewQueue creates a task queue with the given pool size.
func NewQueue(poolSize int, opts ...Option) (*Queue, error) {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		pool:        pool,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default().With("component", "task"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Submit schedules fn on the pool. The returned ID identifies the task in
// logs. Submission fails only when the queue is closed or the pool rejects
// the job; execution failures are retried and then logged.
func (q *Queue) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) (string, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	q.wg.Add(1)
	q.mu.Unlock()

	id := uuid.NewString()
	// The task must outlive the submitting request.
	taskCtx := context.WithoutCancel(ctx)

	err := q.pool.Submit(func() {
		defer q.wg.Done()

		start := time.Now()
		err := RetryWithBackoff(taskCtx, func() error { return fn(taskCtx) }, q.maxAttempts, q.baseDelay)
		if err != nil {
			q.logger.Error("task failed permanently",
				"task", name, "id", id, "attempts", q.maxAttempts, "err", err)
			return
		}
		q.logger.Debug("task completed", "task", name, "id", id, "elapsed", time.Since(start))
	})
	if err != nil {
		q.wg.Done()
		return "", err
	}

	q.logger.Debug("task submitted", "task", name, "id", id)
	return id, nil
}

// Wait blocks until every submitted task has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Release drains in-flight tasks and shuts the pool down.
func (q *Queue) Release() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wg.Wait()
	q.pool.Release()
}

// RetryWithBackoff retries an operation with exponential backoff.
// The delay doubles after each failed attempt; context cancellation stops
// both retries and the backoff sleep.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
