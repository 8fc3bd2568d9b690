package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/auth"
	"github.com/Sahilmadankar20/personal-finance/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	email := domain.NormalizeEmail(req.Email)
	if err := domain.ValidateEmail(email); err != nil {
		h.fail(c, err)
		return
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		h.fail(c, err)
		return
	}
	if req.Name == "" {
		h.fail(c, fmt.Errorf("%w: name is required", domain.ErrInvalidInput))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), email, hash, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login. Failed attempts are throttled per
// email address; the lockout clears on a successful login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	email := domain.NormalizeEmail(req.Email)

	if !h.limiter.Allow(ctx, email) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "too many failed login attempts, try again later",
		})
		return
	}

	user, err := h.store.UserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		h.limiter.RecordFailure(ctx, email)
		h.fail(c, domain.ErrInvalidCredentials)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.limiter.RecordFailure(ctx, email)
		h.fail(c, domain.ErrInvalidCredentials)
		return
	}

	h.limiter.Clear(ctx, email)

	token, err := h.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.setSession(c, token)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Logout handles POST /api/v1/auth/logout by expiring the session cookie.
// The token itself stays valid until its TTL; there is no server-side
// session state to revoke.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) setSession(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, int(h.tokenTTL.Seconds()), "/", "", false, true)
}
