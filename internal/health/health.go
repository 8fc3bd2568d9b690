// Package health probes the backing services for the deep health endpoint.
// Each probe runs behind its own circuit breaker so a dependency that stays
// down stops being hammered after a few consecutive failures.
package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

// ProbeResult is the outcome of probing a single dependency.
type ProbeResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Prober is implemented by each dependency probe.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// NewCircuitBreaker returns a gobreaker configured to trip after 3 consecutive
// failures and reset after 30 seconds in the open state.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// dbPinger abstracts *sql.DB so tests can inject a fake.
type dbPinger interface {
	PingContext(ctx context.Context) error
}

// DBProber checks the primary database with a ping through the breaker.
type DBProber struct {
	name string
	db   dbPinger
	cb   *gobreaker.CircuitBreaker
}

func NewDBProber(name string, db *sql.DB, cb *gobreaker.CircuitBreaker) *DBProber {
	return &DBProber{name: name, db: db, cb: cb}
}

func (p *DBProber) Probe(ctx context.Context) ProbeResult {
	start := time.Now()

	_, err := p.cb.Execute(func() (any, error) {
		if err := p.db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		return nil, nil
	})

	return toResult(p.name, start, err)
}

// redisPinger abstracts the go-redis client for tests.
type redisPinger interface {
	PingResult(ctx context.Context) (string, error)
	Close() error
}

type realRedisPinger struct {
	client *redis.Client
}

func (r *realRedisPinger) PingResult(ctx context.Context) (string, error) {
	return r.client.Ping(ctx).Result()
}

func (r *realRedisPinger) Close() error {
	return r.client.Close()
}

// RedisProber pings the optional throttle store. The client is built lazily
// from the URL on each probe; no connection is held between probes.
type RedisProber struct {
	name   string
	url    string
	cb     *gobreaker.CircuitBreaker
	pinger redisPinger
}

func NewRedisProber(name, rawURL string, cb *gobreaker.CircuitBreaker) *RedisProber {
	return &RedisProber{name: name, url: rawURL, cb: cb}
}

func (p *RedisProber) Probe(ctx context.Context) ProbeResult {
	start := time.Now()

	_, err := p.cb.Execute(func() (any, error) {
		pinger := p.pinger
		if pinger == nil {
			opts, err := redis.ParseURL(p.url)
			if err != nil {
				return nil, fmt.Errorf("parse url: %w", err)
			}
			pinger = &realRedisPinger{client: redis.NewClient(opts)}
			defer pinger.Close() //nolint:errcheck
		}

		val, err := pinger.PingResult(ctx)
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		if val != "PONG" {
			return nil, fmt.Errorf("unexpected PING response: %q", val)
		}
		return nil, nil
	})

	return toResult(p.name, start, err)
}

func toResult(name string, start time.Time, err error) ProbeResult {
	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return ProbeResult{Name: name, OK: false, LatencyMs: latency, Error: errMsg}
	}
	return ProbeResult{Name: name, OK: true, LatencyMs: latency}
}

// Checker fans a deep health check out to every registered prober.
type Checker struct {
	probers []Prober
}

func NewChecker(probers ...Prober) *Checker {
	return &Checker{probers: probers}
}

// Run probes all dependencies concurrently and returns a map keyed by probe
// name. A failed probe is recorded, never fatal.
func (c *Checker) Run(ctx context.Context) map[string]ProbeResult {
	results := make(map[string]ProbeResult, len(c.probers))
	var mu sync.Mutex
	var g errgroup.Group

	for _, p := range c.probers {
		p := p
		g.Go(func() error {
			res := p.Probe(ctx)
			mu.Lock()
			results[res.Name] = res
			mu.Unlock()
			return nil
		})
	}

	// Never returns an error: every goroutine returns nil.
	_ = g.Wait()
	return results
}
