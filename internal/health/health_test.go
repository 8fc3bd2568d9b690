package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	err error
}

func (f *fakeDB) PingContext(_ context.Context) error { return f.err }

type fakeRedis struct {
	resp string
	err  error
}

func (f *fakeRedis) PingResult(_ context.Context) (string, error) { return f.resp, f.err }
func (f *fakeRedis) Close() error                                 { return nil }

func TestDBProber_OK(t *testing.T) {
	t.Parallel()

	p := &DBProber{name: "database", db: &fakeDB{}, cb: NewCircuitBreaker("database")}

	res := p.Probe(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, "database", res.Name)
	assert.Empty(t, res.Error)
}

func TestDBProber_Failure(t *testing.T) {
	t.Parallel()

	p := &DBProber{
		name: "database",
		db:   &fakeDB{err: errors.New("connection refused")},
		cb:   NewCircuitBreaker("database"),
	}

	res := p.Probe(context.Background())
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "connection refused")
}

func TestDBProber_CircuitOpens(t *testing.T) {
	t.Parallel()

	p := &DBProber{
		name: "database",
		db:   &fakeDB{err: errors.New("down")},
		cb:   NewCircuitBreaker("database"),
	}

	// Trip the breaker with 3 consecutive failures.
	for i := 0; i < 3; i++ {
		res := p.Probe(context.Background())
		assert.False(t, res.OK)
	}

	res := p.Probe(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, "circuit open", res.Error)
}

func TestRedisProber_OK(t *testing.T) {
	t.Parallel()

	p := &RedisProber{
		name:   "redis",
		cb:     NewCircuitBreaker("redis"),
		pinger: &fakeRedis{resp: "PONG"},
	}

	res := p.Probe(context.Background())
	assert.True(t, res.OK)
}

func TestRedisProber_UnexpectedResponse(t *testing.T) {
	t.Parallel()

	p := &RedisProber{
		name:   "redis",
		cb:     NewCircuitBreaker("redis"),
		pinger: &fakeRedis{resp: "NOPE"},
	}

	res := p.Probe(context.Background())
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "unexpected PING response")
}

func TestRedisProber_BadURL(t *testing.T) {
	t.Parallel()

	p := NewRedisProber("redis", "not-a-url", NewCircuitBreaker("redis"))

	res := p.Probe(context.Background())
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "parse url")
}

func TestChecker_RunAll(t *testing.T) {
	t.Parallel()

	ok := &DBProber{name: "database", db: &fakeDB{}, cb: NewCircuitBreaker("db")}
	bad := &RedisProber{
		name:   "redis",
		cb:     NewCircuitBreaker("redis"),
		pinger: &fakeRedis{err: errors.New("timeout")},
	}

	results := NewChecker(ok, bad).Run(context.Background())
	require.Len(t, results, 2)

	assert.True(t, results["database"].OK)
	assert.False(t, results["redis"].OK)
}
