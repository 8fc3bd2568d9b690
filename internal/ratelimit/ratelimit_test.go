package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter_BlocksAfterThreshold(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "alice"))

	l.RecordFailure(ctx, "alice")
	l.RecordFailure(ctx, "alice")
	assert.True(t, l.Allow(ctx, "alice"))

	l.RecordFailure(ctx, "alice")
	assert.False(t, l.Allow(ctx, "alice"))

	// Other keys are unaffected.
	assert.True(t, l.Allow(ctx, "bob"))
}

func TestMemoryLimiter_WindowExpiry(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	l.RecordFailure(ctx, "alice")
	assert.False(t, l.Allow(ctx, "alice"))

	current = current.Add(61 * time.Second)
	assert.True(t, l.Allow(ctx, "alice"))

	// A failure after expiry starts a fresh window.
	l.RecordFailure(ctx, "alice")
	assert.False(t, l.Allow(ctx, "alice"))
}

func TestMemoryLimiter_ClearResets(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	l.RecordFailure(ctx, "alice")
	assert.False(t, l.Allow(ctx, "alice"))

	l.Clear(ctx, "alice")
	assert.True(t, l.Allow(ctx, "alice"))
}

func TestMemoryLimiter_SweepsExpiredEntries(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(5, time.Minute)
	ctx := context.Background()

	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	for _, key := range []string{"a", "b", "c", "d"} {
		l.RecordFailure(ctx, key)
	}
	assert.Len(t, l.entries, 4)

	// Once the window passes, the next failure sweeps the stale keys.
	current = current.Add(61 * time.Second)
	l.RecordFailure(ctx, "e")
	assert.Len(t, l.entries, 1)
}

func TestNewRedisLimiter_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisLimiter("not-a-redis-url", 5, time.Minute)
	assert.Error(t, err)
}
