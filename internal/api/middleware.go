package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	ctxUserID = "auth.user_id"
	ctxAdmin  = "auth.admin"
)

// Recovery returns a middleware that recovers from panics, logs the stack
// trace, and returns a 500 to the client so the server continues serving.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.Error("panic recovered",
					"panic", r,
					"stack", string(stack),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// Tracing returns a middleware that injects OTEL trace context into each
// request using otelgin. The serviceName is attached to each span.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// RequestLogger returns a middleware that emits a structured slog line for
// every request with method, path, status, and latency.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// sessionToken pulls the raw session token from the Authorization header or,
// failing that, the session cookie set at login.
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects requests without a valid user session and records the
// authenticated user id on the context.
func (h *Handler) RequireAuth(c *gin.Context) {
	raw := sessionToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	claims, err := h.tokens.Parse(raw)
	if err != nil || claims.UserID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxAdmin, claims.Admin)
	c.Next()
}

// RequireAdmin rejects requests whose session was not issued through the
// admin login gate.
func (h *Handler) RequireAdmin(c *gin.Context) {
	raw := sessionToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin login required"})
		return
	}

	claims, err := h.tokens.Parse(raw)
	if err != nil || !claims.Admin {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin login required"})
		return
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxAdmin, true)
	c.Next()
}

// userID returns the authenticated user id recorded by RequireAuth.
func userID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}
