package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/domain"
	"github.com/Sahilmadankar20/personal-finance/internal/planner"
)

// dashboardResponse is the aggregated view a logged-in user lands on:
// normalised monthly figures, per-category totals, and the affordability
// projection for every goal.
type dashboardResponse struct {
	User            domain.User          `json:"user"`
	MonthlyIncome   float64              `json:"monthly_income"`
	MonthlyExpenses float64              `json:"monthly_expenses"`
	MonthlySavings  float64              `json:"monthly_savings"`
	CurrentSavings  float64              `json:"current_savings"`
	Categories      map[string]float64   `json:"categories"`
	Expenses        []domain.Expense     `json:"expenses"`
	Goals           []planner.GoalStatus `json:"goals"`
	Warning         string               `json:"warning,omitempty"`
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	user, err := h.store.UserByID(ctx, uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	expenses, err := h.store.ExpensesByUser(ctx, uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	goals, err := h.store.GoalsByUser(ctx, uid)
	if err != nil {
		h.fail(c, err)
		return
	}

	monthlyExpenses, categories := planner.MonthlyTotal(expenses)
	monthlySavings := user.MonthlyIncome - monthlyExpenses

	resp := dashboardResponse{
		User:            user,
		MonthlyIncome:   user.MonthlyIncome,
		MonthlyExpenses: monthlyExpenses,
		MonthlySavings:  monthlySavings,
		CurrentSavings:  user.CurrentSavings,
		Categories:      categories,
		Expenses:        expenses,
		Goals:           make([]planner.GoalStatus, 0, len(goals)),
	}
	if monthlyExpenses > user.MonthlyIncome {
		resp.Warning = "your monthly expenses exceed your income"
	}

	today := h.now()
	for _, g := range goals {
		resp.Goals = append(resp.Goals, planner.EvaluateGoal(g, user.CurrentSavings, monthlySavings, today))
	}

	c.JSON(http.StatusOK, resp)
}

// ClearData handles POST /api/v1/dashboard/clear. It wipes the user's
// expenses and goals but leaves the account and profile intact.
func (h *Handler) ClearData(c *gin.Context) {
	if err := h.store.ClearUserData(c.Request.Context(), userID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

type profileRequest struct {
	Occupation     string  `json:"occupation"`
	MonthlyIncome  float64 `json:"monthly_income"`
	CurrentSavings float64 `json:"current_savings"`
}

// UpdateProfile handles PUT /api/v1/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.MonthlyIncome < 0 || req.CurrentSavings < 0 {
		h.fail(c, fmt.Errorf("%w: income and savings cannot be negative", domain.ErrInvalidInput))
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)

	if err := h.store.UpdateProfile(ctx, uid, req.Occupation, req.MonthlyIncome, req.CurrentSavings); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.store.UserByID(ctx, uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type loanRequest struct {
	Principal  float64 `json:"principal"`
	AnnualRate float64 `json:"annual_rate"`
	Years      float64 `json:"years"`
}

// Loan handles POST /api/v1/loan. Pure arithmetic, nothing is stored.
func (h *Handler) Loan(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := planner.Loan(req.Principal, req.AnnualRate, req.Years)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
