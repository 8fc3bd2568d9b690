package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahilmadankar20/personal-finance/internal/config"
	"github.com/Sahilmadankar20/personal-finance/internal/domain"
	"github.com/Sahilmadankar20/personal-finance/internal/storage"
)

// newTestRepo opens a throwaway SQLite database in a temp dir and migrates it.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	cfg := config.DatabaseConfig{
		Backend: config.BackendSQLite,
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "finance_test.db"),
	}

	db, err := storage.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	require.NoError(t, storage.Migrate(context.Background(), db, cfg.Backend))

	return New(db, cfg.Backend)
}

func TestCreateUser_AndLookup(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	u, err := r.CreateUser(ctx, "alice@example.com", "hash-1", "Alice")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	byEmail, err := r.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash-1", byEmail.PasswordHash)

	byID, err := r.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)
	assert.False(t, byID.IsAdmin)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.CreateUser(ctx, "bob@example.com", "h", "Bob")
	require.NoError(t, err)

	_, err = r.CreateUser(ctx, "bob@example.com", "h2", "Bobby")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestCreateUser_DuplicateKeyFromDriver(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.CreateUser(ctx, "carol@example.com", "h", "Carol")
	require.NoError(t, err)

	// Bypass the pre-insert existence check the way a racing registration
	// would, and hit the UNIQUE index directly.
	_, err = r.insertID(ctx,
		`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		"carol@example.com", "h2", "Caroline",
	)
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  string
		want bool
	}{
		{"sqlite", "constraint failed: UNIQUE constraint failed: users.email (2067)", true},
		{"mysql", "Error 1062 (23000): Duplicate entry 'a@b.c' for key 'users.email'", true},
		{"postgres", `ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`, true},
		{"unrelated", "connection refused", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, isDuplicateKey(errors.New(tc.msg)))
		})
	}

	assert.False(t, isDuplicateKey(nil))
}

func TestUserByEmail_NotFound(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	_, err := r.UserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	u, err := r.CreateUser(ctx, "carol@example.com", "h", "Carol")
	require.NoError(t, err)

	require.NoError(t, r.UpdateProfile(ctx, u.ID, "engineer", 5000, 1200.50))

	got, err := r.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "engineer", got.Occupation)
	assert.InDelta(t, 5000.0, got.MonthlyIncome, 0.001)
	assert.InDelta(t, 1200.50, got.CurrentSavings, 0.001)

	assert.ErrorIs(t, r.UpdateProfile(ctx, 9999, "x", 0, 0), domain.ErrNotFound)
}

func TestExpenses_CRUDAndScoping(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	alice, err := r.CreateUser(ctx, "a@example.com", "h", "A")
	require.NoError(t, err)
	bob, err := r.CreateUser(ctx, "b@example.com", "h", "B")
	require.NoError(t, err)

	e1, err := r.AddExpense(ctx, domain.Expense{
		UserID:       alice.ID,
		Title:        "rent",
		Category:     "Housing",
		Amount:       1200,
		Frequency:    domain.FrequencyMonthly,
		DateRecorded: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = r.AddExpense(ctx, domain.Expense{
		UserID:       alice.ID,
		Title:        "coffee",
		Amount:       5,
		Frequency:    domain.FrequencyDaily,
		DateRecorded: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	list, err := r.ExpensesByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first.
	assert.Equal(t, "coffee", list[0].Title)
	assert.Equal(t, domain.FrequencyMonthly, list[1].Frequency)
	assert.Equal(t, "2026-08-01", list[1].DateRecorded.Format("2006-01-02"))

	// Bob sees nothing and cannot delete Alice's expense.
	bobList, err := r.ExpensesByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobList)
	assert.ErrorIs(t, r.DeleteExpense(ctx, bob.ID, e1.ID), domain.ErrNotFound)

	require.NoError(t, r.DeleteExpense(ctx, alice.ID, e1.ID))
	list, err = r.ExpensesByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGoals_CRUDAndScoping(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	alice, err := r.CreateUser(ctx, "a@example.com", "h", "A")
	require.NoError(t, err)
	bob, err := r.CreateUser(ctx, "b@example.com", "h", "B")
	require.NoError(t, err)

	g, err := r.AddGoal(ctx, domain.Goal{UserID: alice.ID, Title: "laptop", TargetAmount: 1500})
	require.NoError(t, err)
	assert.NotZero(t, g.ID)
	assert.False(t, g.DateCreated.IsZero())

	goals, err := r.GoalsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "laptop", goals[0].Title)

	assert.ErrorIs(t, r.DeleteGoal(ctx, bob.ID, g.ID), domain.ErrNotFound)
	require.NoError(t, r.DeleteGoal(ctx, alice.ID, g.ID))

	goals, err = r.GoalsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestClearUserData(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	alice, err := r.CreateUser(ctx, "a@example.com", "h", "A")
	require.NoError(t, err)
	bob, err := r.CreateUser(ctx, "b@example.com", "h", "B")
	require.NoError(t, err)

	_, err = r.AddExpense(ctx, domain.Expense{UserID: alice.ID, Title: "x", Amount: 1, Frequency: domain.FrequencyMonthly})
	require.NoError(t, err)
	_, err = r.AddGoal(ctx, domain.Goal{UserID: alice.ID, Title: "g", TargetAmount: 10})
	require.NoError(t, err)
	_, err = r.AddGoal(ctx, domain.Goal{UserID: bob.ID, Title: "keep", TargetAmount: 10})
	require.NoError(t, err)

	require.NoError(t, r.ClearUserData(ctx, alice.ID))

	expenses, err := r.ExpensesByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, expenses)

	goals, err := r.GoalsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, goals)

	bobGoals, err := r.GoalsByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobGoals, 1)
}

func TestDeleteUser_Cascades(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	u, err := r.CreateUser(ctx, "gone@example.com", "h", "Gone")
	require.NoError(t, err)
	_, err = r.AddExpense(ctx, domain.Expense{UserID: u.ID, Title: "x", Amount: 1, Frequency: domain.FrequencyMonthly})
	require.NoError(t, err)

	require.NoError(t, r.DeleteUser(ctx, u.ID))

	_, err = r.UserByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	users, err := r.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	assert.ErrorIs(t, r.DeleteUser(ctx, u.ID), domain.ErrNotFound)
}
