// Package storage opens the configured database/sql backend and applies the
// idempotent schema migrations. The driver was already selected by the
// bootstrap configurator; this package is the first point where any network
// or file I/O happens.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql" // mysql:// scheme
	_ "github.com/jackc/pgx/v5/stdlib" // postgres:// scheme
	_ "modernc.org/sqlite"             // default local backend

	"github.com/Sahilmadankar20/personal-finance/internal/config"
)

// Open connects to the configured backend and verifies the connection with a
// ping so a bad DATABASE_URL fails here, before the HTTP listener binds.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Backend == config.BackendSQLite {
		if dir := filepath.Dir(cfg.DSN); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("connect to %s backend: %w", cfg.Backend, err)
	}

	if cfg.Backend == config.BackendSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
			db.Close() //nolint:errcheck
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// Migrate creates the users, expenses, and goals tables if they do not exist.
// The DDL is per-dialect; dates are stored as ISO-8601 text so every backend
// scans them identically.
func Migrate(ctx context.Context, db *sql.DB, backend config.Backend) error {
	for _, stmt := range schema(backend) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", backend, err)
		}
	}
	return nil
}

func schema(backend config.Backend) []string {
	var id, money, boolCol string
	switch backend {
	case config.BackendMySQL:
		id = "BIGINT PRIMARY KEY AUTO_INCREMENT"
		money = "DOUBLE"
		boolCol = "BOOLEAN"
	case config.BackendPostgres:
		id = "BIGSERIAL PRIMARY KEY"
		money = "DOUBLE PRECISION"
		boolCol = "BOOLEAN"
	default:
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
		money = "REAL"
		boolCol = "BOOLEAN"
	}

	return []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS users (
  id %s,
  email VARCHAR(255) NOT NULL UNIQUE,
  password_hash VARCHAR(255) NOT NULL,
  name VARCHAR(100) NOT NULL DEFAULT '',
  occupation VARCHAR(100) NOT NULL DEFAULT '',
  monthly_income %s NOT NULL DEFAULT 0,
  current_savings %s NOT NULL DEFAULT 0,
  is_admin %s NOT NULL DEFAULT FALSE
);`, id, money, money, boolCol),

		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS expenses (
  id %s,
  user_id BIGINT NOT NULL,
  title VARCHAR(255) NOT NULL,
  category VARCHAR(100) NOT NULL DEFAULT '',
  amount %s NOT NULL,
  frequency VARCHAR(10) NOT NULL,
  description VARCHAR(500) NOT NULL DEFAULT '',
  date_recorded VARCHAR(10) NOT NULL
);`, id, money),

		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS goals (
  id %s,
  user_id BIGINT NOT NULL,
  title VARCHAR(255) NOT NULL,
  target_amount %s NOT NULL,
  date_created VARCHAR(10) NOT NULL
);`, id, money),
	}
}
