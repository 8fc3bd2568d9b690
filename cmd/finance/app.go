package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Sahilmadankar20/personal-finance/internal/api"
	"github.com/Sahilmadankar20/personal-finance/internal/auth"
	"github.com/Sahilmadankar20/personal-finance/internal/config"
	"github.com/Sahilmadankar20/personal-finance/internal/health"
	"github.com/Sahilmadankar20/personal-finance/internal/ratelimit"
	"github.com/Sahilmadankar20/personal-finance/internal/repo"
	"github.com/Sahilmadankar20/personal-finance/internal/storage"
	"github.com/Sahilmadankar20/personal-finance/internal/telemetry"
)

// AppContext holds all constructed application dependencies. It is built by
// the commands that actually touch the database (serve); the config command
// stays I/O-free.
type AppContext struct {
	cfg          *config.Config
	db           *sql.DB
	router       *api.Router
	otelProvider *telemetry.Provider
	redisLimiter *ratelimit.RedisLimiter
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Opens the selected database backend and applies migrations
//  3. Picks the login throttle store (Redis when configured, memory otherwise)
//  4. Builds the health probes, one circuit breaker each
//  5. Creates the HTTP router
func buildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	// OTEL is best-effort: a missing collector must never block startup.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Info("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(
			ctx,
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
			cfg.Telemetry.OTLPInsecure,
		)
		if err != nil {
			slog.Warn("OTEL provider init failed, telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
		}
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := storage.Migrate(ctx, db, cfg.Database.Backend); err != nil {
		app.Close()
		return nil, err
	}

	store := repo.New(db, cfg.Database.Backend)
	tokens := auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)

	var limiter ratelimit.Limiter
	if cfg.Redis.URL != "" {
		rl, err := ratelimit.NewRedisLimiter(cfg.Redis.URL, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginWindow)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redisLimiter = rl
		limiter = rl
		slog.Info("login throttle backed by redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.Auth.LoginMaxFailures, cfg.Auth.LoginWindow)
	}

	dbProbe := health.NewDBProber("database", db, health.NewCircuitBreaker("database"))
	probers := []health.Prober{dbProbe}
	if cfg.Redis.URL != "" {
		probers = append(probers, health.NewRedisProber("redis", cfg.Redis.URL, health.NewCircuitBreaker("redis")))
	}
	checker := health.NewChecker(probers...)

	app.router = api.NewRouter(cfg, store, tokens, limiter, dbProbe, checker)

	return app, nil
}

// Close releases every held resource. Safe to call on a partially built context.
func (a *AppContext) Close() {
	if a.redisLimiter != nil {
		if err := a.redisLimiter.Close(); err != nil {
			slog.Warn("closing redis limiter", "err", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("closing database", "err", err)
		}
	}
	if a.otelProvider != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelProvider.Shutdown(shutCtx); err != nil {
			slog.Warn("OTEL shutdown error", "err", err)
		}
	}
}
