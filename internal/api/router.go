package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/config"
	"github.com/Sahilmadankar20/personal-finance/internal/health"
	"github.com/Sahilmadankar20/personal-finance/internal/ratelimit"
)

// Router wraps a configured Gin engine and exposes it as an http.Handler.
type Router struct {
	engine *gin.Engine
}

// NewRouter constructs a Router with the full middleware chain and all routes
// registered. The middleware order is:
//  1. Recovery — panic → 500
//  2. Tracing — trace context per request (only when an OTLP endpoint is set)
//  3. RequestLogger — structured request/response logging
//
// The admin routes are registered only when both admin credentials are
// configured; with the gate disabled the paths do not exist and return 404.
func NewRouter(cfg *config.Config, store Store, tokens tokenService, limiter ratelimit.Limiter, dbProbe health.Prober, checker deepChecker) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(Recovery(slog.Default()))
	if cfg.Telemetry.OTLPEndpoint != "" {
		engine.Use(Tracing(cfg.Telemetry.ServiceName))
	}
	engine.Use(RequestLogger(slog.Default()))

	h := &Handler{
		store:      store,
		tokens:     tokens,
		limiter:    limiter,
		checker:    checker,
		dbProbe:    dbProbe,
		admin:      cfg.Admin,
		bcryptCost: cfg.Auth.BcryptCost,
		tokenTTL:   cfg.Auth.TokenTTL,
		now:        time.Now,
	}

	v1 := engine.Group("/api/v1")

	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/logout", h.Logout)

	authed := v1.Group("", h.RequireAuth)
	authed.GET("/dashboard", h.Dashboard)
	authed.POST("/dashboard/clear", h.ClearData)
	authed.PUT("/profile", h.UpdateProfile)
	authed.GET("/expenses", h.ListExpenses)
	authed.POST("/expenses", h.AddExpense)
	authed.DELETE("/expenses/:id", h.DeleteExpense)
	authed.GET("/goals", h.ListGoals)
	authed.POST("/goals", h.AddGoal)
	authed.DELETE("/goals/:id", h.DeleteGoal)
	authed.POST("/loan", h.Loan)
	authed.GET("/export/csv", h.ExportCSV)

	if cfg.Admin.Enabled() {
		admin := v1.Group("/admin")
		admin.POST("/login", h.AdminLogin)
		admin.GET("/users", h.RequireAdmin, h.ListUsers)
		admin.DELETE("/users/:id", h.RequireAdmin, h.DeleteUser)
	}

	engine.GET("/health", h.Health)
	engine.GET("/health/deep", h.DeepHealth)
	engine.GET("/ready", h.Ready)

	return &Router{engine: engine}
}

// Handler returns the underlying http.Handler for use with net/http servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}
