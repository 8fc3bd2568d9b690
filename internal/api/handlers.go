// Package api is the HTTP surface: gin router, middleware chain, and the
// JSON handlers for auth, dashboard, expenses, goals, the loan calculator,
// and the optional admin panel.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/auth"
	"github.com/Sahilmadankar20/personal-finance/internal/config"
	"github.com/Sahilmadankar20/personal-finance/internal/domain"
	"github.com/Sahilmadankar20/personal-finance/internal/health"
	"github.com/Sahilmadankar20/personal-finance/internal/ratelimit"
)

// Store is the subset of *repo.Repository used by the HTTP handlers.
// Declaring it as an interface allows test doubles to be injected.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, occupation string, monthlyIncome, currentSavings float64) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, userID int64) error

	AddExpense(ctx context.Context, e domain.Expense) (domain.Expense, error)
	ExpensesByUser(ctx context.Context, userID int64) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID int64) error

	AddGoal(ctx context.Context, g domain.Goal) (domain.Goal, error)
	GoalsByUser(ctx context.Context, userID int64) ([]domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID int64) error

	ClearUserData(ctx context.Context, userID int64) error
}

// tokenService is the subset of *auth.TokenIssuer the handlers need.
type tokenService interface {
	Issue(userID int64, admin bool) (string, error)
	Parse(raw string) (*auth.Claims, error)
}

// deepChecker is the subset of *health.Checker used by the deep health endpoint.
type deepChecker interface {
	Run(ctx context.Context) map[string]health.ProbeResult
}

// sessionCookie carries the signed session token between requests.
const sessionCookie = "session"

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	store   Store
	tokens  tokenService
	limiter ratelimit.Limiter
	checker deepChecker
	dbProbe health.Prober

	admin      config.AdminConfig
	bcryptCost int
	tokenTTL   time.Duration

	// now is injectable so goal projections are deterministic in tests.
	now func() time.Time
}

// fail maps domain errors onto HTTP status codes and writes the JSON error
// body. Unknown errors are logged and masked as a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var code int
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken):
		code = http.StatusConflict
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// badRequest rejects a malformed JSON body.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

// Health handles GET /health. It always returns 200; this is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"mode":   "shallow",
	})
}

// DeepHealth handles GET /health/deep. It probes the database and, when
// configured, Redis, and returns 200 only when every probe is OK.
func (h *Handler) DeepHealth(c *gin.Context) {
	probes := h.checker.Run(c.Request.Context())

	allOK := true
	for _, p := range probes {
		if !p.OK {
			allOK = false
			break
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !allOK {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": probes,
	})
}

// Ready handles GET /ready. Readiness is a single database probe: migrations
// run before the listener binds, so a reachable database means the instance
// can serve traffic.
func (h *Handler) Ready(c *gin.Context) {
	res := h.dbProbe.Probe(c.Request.Context())
	if res.OK {
		c.JSON(http.StatusOK, gin.H{"ready": true})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": res.Error})
}
