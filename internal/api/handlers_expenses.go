package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/domain"
)

// pathID parses a numeric :id path parameter.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", domain.ErrInvalidInput)
	}
	return id, nil
}

type expenseRequest struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Frequency   string  `json:"frequency"`
	Description string  `json:"description"`
}

// AddExpense handles POST /api/v1/expenses.
func (h *Handler) AddExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	freq, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		h.fail(c, err)
		return
	}

	expense := domain.Expense{
		UserID:      userID(c),
		Title:       req.Title,
		Category:    req.Category,
		Amount:      req.Amount,
		Frequency:   freq,
		Description: req.Description,
	}
	if err := expense.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	created, err := h.store.AddExpense(c.Request.Context(), expense)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": created})
}

// ListExpenses handles GET /api/v1/expenses.
func (h *Handler) ListExpenses(c *gin.Context) {
	expenses, err := h.store.ExpensesByUser(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// DeleteExpense handles DELETE /api/v1/expenses/:id. The SQL is scoped by
// user id, so deleting another user's expense yields a 404.
func (h *Handler) DeleteExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.DeleteExpense(c.Request.Context(), userID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
