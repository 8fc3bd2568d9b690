package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/domain"
)

type goalRequest struct {
	Title        string  `json:"title"`
	TargetAmount float64 `json:"target_amount"`
}

// AddGoal handles POST /api/v1/goals.
func (h *Handler) AddGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	goal := domain.Goal{
		UserID:       userID(c),
		Title:        req.Title,
		TargetAmount: req.TargetAmount,
	}
	if err := goal.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	created, err := h.store.AddGoal(c.Request.Context(), goal)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal": created})
}

// ListGoals handles GET /api/v1/goals.
func (h *Handler) ListGoals(c *gin.Context) {
	goals, err := h.store.GoalsByUser(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// DeleteGoal handles DELETE /api/v1/goals/:id.
func (h *Handler) DeleteGoal(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.DeleteGoal(c.Request.Context(), userID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
