package api

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sahilmadankar20/personal-finance/internal/planner"
)

// ExportCSV handles GET /api/v1/export/csv. It streams the user's full
// financial data as a CSV attachment: an expenses section followed by a
// goals section with a computed affordability status per goal.
func (h *Handler) ExportCSV(c *gin.Context) {
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

	monthlyExpenses, _ := planner.MonthlyTotal(expenses)
	monthlySavings := user.MonthlyIncome - monthlyExpenses
	today := h.now()

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="finance_data.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Expenses"})
	_ = w.Write([]string{"Title", "Category", "Amount", "Frequency", "Description", "Date"})
	for _, e := range expenses {
		_ = w.Write([]string{
			e.Title,
			e.Category,
			fmt.Sprintf("%.2f", e.Amount),
			string(e.Frequency),
			e.Description,
			e.DateRecorded.Format("2006-01-02"),
		})
	}

	_ = w.Write([]string{""})
	_ = w.Write([]string{"Goals"})
	_ = w.Write([]string{"Title", "Target Amount", "Date Created", "Status"})
	for _, g := range goals {
		status := planner.EvaluateGoal(g, user.CurrentSavings, monthlySavings, today)
		_ = w.Write([]string{
			g.Title,
			fmt.Sprintf("%.2f", g.TargetAmount),
			g.DateCreated.Format("2006-01-02"),
			goalStatusLabel(status),
		})
	}
	w.Flush()

	// Headers are already out; a broken stream can only be logged.
	if err := w.Error(); err != nil {
		slog.ErrorContext(c.Request.Context(), "csv export write failed", "error", err)
	}
}

func goalStatusLabel(s planner.GoalStatus) string {
	switch s.State {
	case planner.GoalAffordableNow:
		return "affordable now"
	case planner.GoalAffordableLater:
		return "affordable by " + s.AffordableBy
	default:
		return "not affordable yet"
	}
}
