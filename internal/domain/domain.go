package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors shared across the repository and HTTP layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Frequency is how often an expense recurs. Monthly totals normalise daily
// expenses by ×30 and yearly by ÷12.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ParseFrequency validates a frequency string. An empty value defaults to
// monthly, matching the original form behaviour.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return FrequencyMonthly, nil
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	case FrequencyYearly:
		return FrequencyYearly, nil
	default:
		return "", fmt.Errorf("%w: frequency must be daily, monthly, or yearly", ErrInvalidInput)
	}
}

type User struct {
	ID             int64   `json:"id"`
	Email          string  `json:"email"`
	PasswordHash   string  `json:"-"`
	Name           string  `json:"name"`
	Occupation     string  `json:"occupation"`
	MonthlyIncome  float64 `json:"monthly_income"`
	CurrentSavings float64 `json:"current_savings"`
	IsAdmin        bool    `json:"is_admin"`
}

type Expense struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Amount       float64   `json:"amount"`
	Frequency    Frequency `json:"frequency"`
	Description  string    `json:"description,omitempty"`
	DateRecorded time.Time `json:"date_recorded"`
}

type Goal struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	Title        string    `json:"title"`
	TargetAmount float64   `json:"target_amount"`
	DateCreated  time.Time `json:"date_created"`
}

// NormalizeEmail lowercases and trims an email address so lookups are
// case-insensitive, as the original registration flow did.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail is a minimal shape check; uniqueness is enforced by the store.
func ValidateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email address is required", ErrInvalidInput)
	}
	return nil
}

// ValidatePassword enforces the baseline password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if len(password) > 128 {
		return fmt.Errorf("%w: password must be at most 128 characters", ErrInvalidInput)
	}
	return nil
}

// Validate checks the fields a new expense must carry.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: expense title is required", ErrInvalidInput)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}
	if _, err := ParseFrequency(string(e.Frequency)); err != nil {
		return err
	}
	return nil
}

// Validate checks the fields a new goal must carry.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: goal title is required", ErrInvalidInput)
	}
	if g.TargetAmount <= 0 {
		return fmt.Errorf("%w: goal target amount must be positive", ErrInvalidInput)
	}
	return nil
}
