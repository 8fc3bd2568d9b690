package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahilmadankar20/personal-finance/internal/auth"
	"github.com/Sahilmadankar20/personal-finance/internal/config"
	"github.com/Sahilmadankar20/personal-finance/internal/health"
	"github.com/Sahilmadankar20/personal-finance/internal/ratelimit"
)

func newTestRouter(t *testing.T, store *fakeStore, adminUser, adminPass string) *Router {
	t.Helper()

	cfg := &config.Config{
		Admin: config.AdminConfig{User: adminUser, Pass: adminPass},
		Auth: config.AuthConfig{
			SecretKey:  "test-secret",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		Telemetry: config.TelemetryConfig{ServiceName: "personal-finance"},
	}

	return NewRouter(cfg, store,
		auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.TokenTTL),
		ratelimit.NewMemoryLimiter(3, time.Minute),
		fakeProbe{res: health.ProbeResult{Name: "database", OK: true}},
		fakeChecker{results: map[string]health.ProbeResult{}},
	)
}

func TestRouter_AdminRoutesAbsentWhenDisabled(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), "", "")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/admin/login"},
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodDelete, "/api/v1/admin/users/1"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(p.method, p.path, nil)
		router.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "route %s %s", p.method, p.path)
	}
}

func TestRouter_AdminLoginWithEnvCredentials(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedUser(t, store, "alice@example.com", false)
	router := newTestRouter(t, store, "admin", "hunter22")

	raw, _ := json.Marshal(adminLoginRequest{Username: "admin", Password: "hunter22"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	router.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	token := body["token"].(string)
	require.NotEmpty(t, token)

	// The admin token opens the user list.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminLoginClearsThrottle(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), "admin", "hunter22")

	adminLogin := func(password string) int {
		raw, _ := json.Marshal(adminLoginRequest{Username: "admin", Password: password})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		router.Handler().ServeHTTP(w, req)
		return w.Code
	}

	// Two failures, then a success resets the counter.
	assert.Equal(t, http.StatusUnauthorized, adminLogin("wrong"))
	assert.Equal(t, http.StatusUnauthorized, adminLogin("wrong"))
	assert.Equal(t, http.StatusOK, adminLogin("hunter22"))

	// A fresh window: two more failures stay below the limit of three.
	assert.Equal(t, http.StatusUnauthorized, adminLogin("wrong"))
	assert.Equal(t, http.StatusUnauthorized, adminLogin("wrong"))
	assert.Equal(t, http.StatusOK, adminLogin("hunter22"))
}

func TestRouter_AdminLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), "admin", "hunter22")

	raw, _ := json.Marshal(adminLoginRequest{Username: "admin", Password: "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AdminUsersRejectsUserToken(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	user := seedUser(t, store, "alice@example.com", false)
	router := newTestRouter(t, store, "admin", "hunter22")

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(user.ID, false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ProtectedRoutesRequireLogin(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), "", "")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/dashboard"},
		{http.MethodPost, "/api/v1/expenses"},
		{http.MethodGet, "/api/v1/goals"},
		{http.MethodPost, "/api/v1/loan"},
		{http.MethodGet, "/api/v1/export/csv"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(p.method, p.path, nil)
		router.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "route %s %s", p.method, p.path)
	}
}

func TestRouter_HealthRoutes(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStore(), "", "")

	for _, path := range []string{"/health", "/health/deep", "/ready"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "route %s", path)
	}
}
