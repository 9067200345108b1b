package repository

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/atelier/pkg/db"
)

//go:embed migrations
var migrations embed.FS

// Migrations returns the migration files for dialect.
func Migrations(dialect db.Dialect) (fs.FS, error) {
	dir := "migrations/postgres"
	if dialect == db.SQLite {
		dir = "migrations/sqlite"
	}
	return fs.Sub(migrations, dir)
}

// Migrate applies pending migrations to d.
func Migrate(ctx context.Context, d *db.DB, table string, log *slog.Logger) error {
	fsys, err := Migrations(d.Dialect())
	if err != nil {
		return err
	}
	return db.Migrate(ctx, d, fsys, table, log)
}

// MigrationStatus lists the migrations of d's dialect and whether each is applied.
func MigrationStatus(ctx context.Context, d *db.DB, table string) ([]*goose.MigrationStatus, error) {
	fsys, err := Migrations(d.Dialect())
	if err != nil {
		return nil, err
	}
	return db.MigrationStatus(ctx, d, fsys, table)
}
