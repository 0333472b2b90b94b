package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrate applies, rolls back or reports the embedded schema migrations.
// command is one of "up", "down" or "status".
func Migrate(ctx context.Context, pool *pgxpool.Pool, command string) error {
	var run func(context.Context, *sql.DB, string) error
	switch command {
	case "up":
		run = func(ctx context.Context, db *sql.DB, dir string) error { return goose.UpContext(ctx, db, dir) }
	case "down":
		run = func(ctx context.Context, db *sql.DB, dir string) error { return goose.DownContext(ctx, db, dir) }
	case "status":
		run = func(ctx context.Context, db *sql.DB, dir string) error { return goose.StatusContext(ctx, db, dir) }
	default:
		return fmt.Errorf("unknown migration command %q: use up, down or status", command)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return run(ctx, db, migrationsDir)
}
