// Package repo is the persistence layer. All queries are written with ?
// placeholders and rebound for the postgres dialect; every financial row is
// scoped by user id at the SQL level.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sahilmadankar20/personal-finance/internal/config"
	"github.com/Sahilmadankar20/personal-finance/internal/domain"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db      *sql.DB
	backend config.Backend
}

func New(db *sql.DB, backend config.Backend) *Repository {
	return &Repository{db: db, backend: backend}
}

// rebind converts ? placeholders to $1..$n for the postgres dialect.
// sqlite and mysql take ? natively.
func (r *Repository) rebind(query string) string {
	if r.backend != config.BackendPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// insertID runs an INSERT and returns the generated id. Postgres has no
// LastInsertId, so the query gets a RETURNING clause there instead.
func (r *Repository) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	if r.backend == config.BackendPostgres {
		var id int64
		err := r.db.QueryRowContext(ctx, r.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash, name string) (domain.User, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT COUNT(1) FROM users WHERE email = ?`), email,
	).Scan(&exists)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return domain.User{}, domain.ErrEmailTaken
	}

	id, err := r.insertID(ctx,
		`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		email, passwordHash, name,
	)
	if err != nil {
		// A concurrent registration can slip past the COUNT and hit the
		// UNIQUE index instead.
		if isDuplicateKey(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	return domain.User{ID: id, Email: email, PasswordHash: passwordHash, Name: name}, nil
}

const userColumns = `id, email, password_hash, name, occupation, monthly_income, current_savings, is_admin`

func (r *Repository) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Occupation,
		&u.MonthlyIncome, &u.CurrentSavings, &u.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	return r.scanUser(row)
}

func (r *Repository) UserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return r.scanUser(row)
}

func (r *Repository) UpdateProfile(ctx context.Context, userID int64, occupation string, monthlyIncome, currentSavings float64) error {
	res, err := r.db.ExecContext(ctx,
		r.rebind(`UPDATE users SET occupation = ?, monthly_income = ?, current_savings = ? WHERE id = ?`),
		occupation, monthlyIncome, currentSavings, userID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Occupation,
			&u.MonthlyIncome, &u.CurrentSavings, &u.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user and all their financial records, mirroring the
// original's delete-orphan cascade.
func (r *Repository) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM expenses WHERE user_id = ?`,
		`DELETE FROM goals WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, r.rebind(q), userID); err != nil {
			return fmt.Errorf("delete user records: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM users WHERE id = ?`), userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	return tx.Commit()
}

// --- expenses ---

func (r *Repository) AddExpense(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	if e.DateRecorded.IsZero() {
		e.DateRecorded = time.Now()
	}

	id, err := r.insertID(ctx,
		`INSERT INTO expenses (user_id, title, category, amount, frequency, description, date_recorded)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Title, e.Category, e.Amount, string(e.Frequency), e.Description,
		e.DateRecorded.Format(dateLayout),
	)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	e.ID = id
	return e, nil
}

func (r *Repository) ExpensesByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, user_id, title, category, amount, frequency, description, date_recorded
		 FROM expenses WHERE user_id = ? ORDER BY date_recorded DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var expenses []domain.Expense
	for rows.Next() {
		var e domain.Expense
		var freq, recorded string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Category, &e.Amount,
			&freq, &e.Description, &recorded); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Frequency = domain.Frequency(freq)
		if e.DateRecorded, err = time.Parse(dateLayout, recorded); err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", recorded, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, expenseID int64) error {
	res, err := r.db.ExecContext(ctx,
		r.rebind(`DELETE FROM expenses WHERE id = ? AND user_id = ?`), expenseID, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// --- goals ---

func (r *Repository) AddGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	if g.DateCreated.IsZero() {
		g.DateCreated = time.Now()
	}

	id, err := r.insertID(ctx,
		`INSERT INTO goals (user_id, title, target_amount, date_created) VALUES (?, ?, ?, ?)`,
		g.UserID, g.Title, g.TargetAmount, g.DateCreated.Format(dateLayout),
	)
	if err != nil {
		return domain.Goal{}, fmt.Errorf("insert goal: %w", err)
	}

	g.ID = id
	return g, nil
}

func (r *Repository) GoalsByUser(ctx context.Context, userID int64) ([]domain.Goal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, user_id, title, target_amount, date_created
		 FROM goals WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var goals []domain.Goal
	for rows.Next() {
		var g domain.Goal
		var created string
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount, &created); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.DateCreated, err = time.Parse(dateLayout, created); err != nil {
			return nil, fmt.Errorf("parse goal date %q: %w", created, err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, goalID int64) error {
	res, err := r.db.ExecContext(ctx,
		r.rebind(`DELETE FROM goals WHERE id = ? AND user_id = ?`), goalID, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

// ClearUserData removes every expense and goal belonging to a user, leaving
// the account itself intact.
func (r *Repository) ClearUserData(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM expenses WHERE user_id = ?`,
		`DELETE FROM goals WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, r.rebind(q), userID); err != nil {
			return fmt.Errorf("clear user data: %w", err)
		}
	}

	return tx.Commit()
}

// isDuplicateKey reports whether err is a unique-constraint violation.
// Each driver spells it differently; matching on the message avoids pulling
// three driver error types into this package.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite, postgres
		strings.Contains(msg, "duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key") // postgres
}

// requireRow maps "zero rows affected" to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
