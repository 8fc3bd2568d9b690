// Package ratelimit throttles failed login attempts per identifier. The
// in-memory store covers single-process deployments; when REDIS_URL is set the
// counters move to Redis so multiple instances share lockout state.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter tracks failed attempts per key. Allow reports whether the key is
// below the failure threshold; RecordFailure bumps the counter; Clear resets
// it after a successful login.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
	RecordFailure(ctx context.Context, key string)
	Clear(ctx context.Context, key string)
}

// --- in-memory ---

type memoryEntry struct {
	failures    int
	windowStart time.Time
}

// MemoryLimiter is the default single-process limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	maxFailures int
	window      time.Duration
	now         func() time.Time
}

func NewMemoryLimiter(maxFailures int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		entries:     make(map[string]memoryEntry),
		maxFailures: maxFailures,
		window:      window,
		now:         time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return true
	}
	if l.now().Sub(e.windowStart) >= l.window {
		delete(l.entries, key)
		return true
	}
	return e.failures < l.maxFailures
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		l.entries[key] = memoryEntry{failures: 1, windowStart: now}
		return
	}
	e.failures++
	l.entries[key] = e
}

// sweep drops every entry whose window has expired, so keys that never log
// in again do not accumulate. Called with the lock held.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.windowStart) >= l.window {
			delete(l.entries, k)
		}
	}
}

func (l *MemoryLimiter) Clear(_ context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// --- redis ---

// RedisLimiter keeps failure counters in Redis with the window as TTL.
// Redis errors fail open: a broken throttle store must not lock every user
// out of login.
type RedisLimiter struct {
	client      *redis.Client
	maxFailures int
	window      time.Duration
}

// NewRedisLimiter parses a redis:// URL and returns a limiter backed by it.
// No connection is made here; go-redis dials lazily on first use.
func NewRedisLimiter(rawURL string, maxFailures int, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	return &RedisLimiter{
		client:      redis.NewClient(opts),
		maxFailures: maxFailures,
		window:      window,
	}, nil
}

func (l *RedisLimiter) key(key string) string {
	return "login_failures:" + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	n, err := l.client.Get(ctx, l.key(key)).Int()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		slog.WarnContext(ctx, "throttle store read failed, failing open", "error", err)
		return true
	}
	return n < l.maxFailures
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) {
	k := l.key(key)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.WarnContext(ctx, "throttle store write failed", "error", err)
	}
}

func (l *RedisLimiter) Clear(ctx context.Context, key string) {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		slog.WarnContext(ctx, "throttle store clear failed", "error", err)
	}
}

// Close releases the underlying Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
