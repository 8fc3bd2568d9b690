// Package planner holds the dashboard arithmetic: monthly expense
// normalisation, goal affordability projection, and the loan calculator.
// All functions are pure so the HTTP layer stays trivially testable.
package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/Sahilmadankar20/personal-finance/internal/domain"
)

// daysPerMonth is the normalisation factor for daily expenses.
const daysPerMonth = 30.0

// fallbackCategory buckets expenses recorded without a category.
const fallbackCategory = "Other"

// MonthlyTotal normalises every expense to a monthly amount (daily ×30,
// yearly ÷12) and returns the overall total plus a per-category breakdown.
func MonthlyTotal(expenses []domain.Expense) (float64, map[string]float64) {
	total := 0.0
	categories := make(map[string]float64)

	for _, e := range expenses {
		var monthly float64
		switch e.Frequency {
		case domain.FrequencyDaily:
			monthly = e.Amount * daysPerMonth
		case domain.FrequencyYearly:
			monthly = e.Amount / 12.0
		default:
			monthly = e.Amount
		}

		total += monthly
		key := e.Category
		if key == "" {
			key = fallbackCategory
		}
		categories[key] += monthly
	}

	return total, categories
}

// GoalState classifies a goal's affordability.
type GoalState string

const (
	GoalAffordableNow   GoalState = "affordable_now"
	GoalAffordableLater GoalState = "affordable_later"
	GoalUnaffordable    GoalState = "unaffordable"
)

// GoalStatus is the evaluated affordability of a single goal.
type GoalStatus struct {
	GoalID       int64     `json:"goal_id"`
	Title        string    `json:"title"`
	TargetAmount float64   `json:"target_amount"`
	State        GoalState `json:"state"`

	// AffordableBy is set only for affordable_later, formatted dd-mm-yyyy
	// (first day of the projected month).
	AffordableBy string `json:"affordable_by,omitempty"`
}

// EvaluateGoal projects when a goal becomes affordable. With positive monthly
// savings the projected month is ceil(remaining / monthlySavings) months from
// the first of the current month; with savings already covering the target the
// goal is affordable now; with no monthly savings it is unaffordable.
func EvaluateGoal(g domain.Goal, currentSavings, monthlySavings float64, today time.Time) GoalStatus {
	status := GoalStatus{
		GoalID:       g.ID,
		Title:        g.Title,
		TargetAmount: g.TargetAmount,
	}

	if currentSavings >= g.TargetAmount {
		status.State = GoalAffordableNow
		return status
	}
	if monthlySavings <= 0 {
		status.State = GoalUnaffordable
		return status
	}

	remaining := g.TargetAmount - currentSavings
	months := int(math.Ceil(remaining / monthlySavings))

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	projected := firstOfMonth.AddDate(0, months, 0)

	status.State = GoalAffordableLater
	status.AffordableBy = projected.Format("02-01-2006")
	return status
}

// LoanResult is the outcome of an EMI calculation, rounded to 2 decimals.
type LoanResult struct {
	EMI           float64 `json:"emi"`
	TotalPayment  float64 `json:"total_payment"`
	TotalInterest float64 `json:"total_interest"`
}

// Loan computes the equated monthly installment for a principal borrowed at
// annualRate percent over the given number of years. A zero rate degrades to
// straight division of the principal.
func Loan(principal, annualRate, years float64) (LoanResult, error) {
	if principal <= 0 {
		return LoanResult{}, fmt.Errorf("%w: loan principal must be positive", domain.ErrInvalidInput)
	}
	if annualRate < 0 {
		return LoanResult{}, fmt.Errorf("%w: loan rate cannot be negative", domain.ErrInvalidInput)
	}
	if years <= 0 {
		return LoanResult{}, fmt.Errorf("%w: loan term must be positive", domain.ErrInvalidInput)
	}

	monthlyRate := annualRate / 12.0 / 100.0
	months := years * 12.0

	var emi float64
	if monthlyRate > 0 {
		growth := math.Pow(1+monthlyRate, months)
		emi = principal * monthlyRate * growth / (growth - 1)
	} else {
		emi = principal / months
	}

	totalPayment := emi * months

	return LoanResult{
		EMI:           round2(emi),
		TotalPayment:  round2(totalPayment),
		TotalInterest: round2(totalPayment - principal),
	}, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
