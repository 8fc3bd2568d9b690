package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/auth"
	"github.com/Sahilmadankar20/personal-finance/internal/domain"
)

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin handles POST /api/v1/admin/login. The route only exists when
// both ADMIN_USER and ADMIN_PASS are configured. Two credential sources are
// accepted: the configured env pair, or a regular account flagged is_admin.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	key := "admin:" + req.Username

	if !h.limiter.Allow(ctx, key) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "too many failed login attempts, try again later",
		})
		return
	}

	userMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.admin.User))
	passMatch := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.admin.Pass))
	if userMatch&passMatch == 1 {
		// Env-credential session: no backing user row, user id 0.
		h.limiter.Clear(ctx, key)
		h.issueAdminSession(c, 0)
		return
	}

	// Fall back to a database account with the admin flag set. The username
	// doubles as the account email here.
	user, err := h.store.UserByEmail(ctx, domain.NormalizeEmail(req.Username))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.fail(c, err)
		return
	}
	if err == nil && user.IsAdmin && auth.CheckPassword(user.PasswordHash, req.Password) {
		h.limiter.Clear(ctx, key)
		h.issueAdminSession(c, user.ID)
		return
	}

	h.limiter.RecordFailure(ctx, key)
	h.fail(c, domain.ErrInvalidCredentials)
}

func (h *Handler) issueAdminSession(c *gin.Context, userID int64) {
	token, err := h.tokens.Issue(userID, true)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSession(c, token)
	c.JSON(http.StatusOK, gin.H{"token": token, "admin": true})
}

// ListUsers handles GET /api/v1/admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteUser handles DELETE /api/v1/admin/users/:id. The user's expenses and
// goals are removed in the same transaction.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
