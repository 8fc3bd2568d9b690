package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sahilmadankar20/personal-finance/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Long: `Migrate opens the backend selected from DATABASE_URL, creates the
users, expenses, and goals tables if they do not exist, prints a JSON
result to stdout, and exits 0 on success or non-zero on failure.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.Info("starting migration", "backend", cfg.Database.Backend)

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		printMigrateResult("error", err.Error())
		return fmt.Errorf("migration failed: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := storage.Migrate(ctx, db, cfg.Database.Backend); err != nil {
		printMigrateResult("error", err.Error())
		return fmt.Errorf("migration failed: %w", err)
	}

	printMigrateResult("ok", "")
	slog.Info("migration completed successfully")
	return nil
}

func printMigrateResult(status, errMsg string) {
	result := map[string]string{
		"status":  status,
		"backend": string(cfg.Database.Backend),
	}
	if errMsg != "" {
		result["error"] = errMsg
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stdout, `{"status":%q}`+"\n", status)
	}
}
