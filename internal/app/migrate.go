package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/migrations"
)

// migrate applies pending goose migrations from the embedded filesystem.
// goose requires *sql.DB, so this opens a short-lived database/sql connection
// separate from the pgx pool.
func migrate(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) error {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return fmt.Errorf("migrate: open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}

	for _, res := range results {
		log.InfoContext(ctx, "migration applied",
			slog.String("source", res.Source.Path),
			slog.Duration("duration", res.Duration),
		)
	}
	return nil
}
