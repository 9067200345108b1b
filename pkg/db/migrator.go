package db

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate applies all pending migrations found in migrations (the root of the
// FS holds the .sql files for d's dialect). A goose provider is used instead of
// the package-level goose state so independent databases can migrate concurrently.
func Migrate(ctx context.Context, d *DB, migrations fs.FS, table string, log *slog.Logger) error {
	provider, err := newProvider(d, migrations, table)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		if r.Source == nil {
			continue
		}
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("source", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	if err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

// MigrationStatus lists every known migration with its applied state.
func MigrationStatus(ctx context.Context, d *DB, migrations fs.FS, table string) ([]*goose.MigrationStatus, error) {
	provider, err := newProvider(d, migrations, table)
	if err != nil {
		return nil, err
	}
	return provider.Status(ctx)
}

func newProvider(d *DB, migrations fs.FS, table string) (*goose.Provider, error) {
	store, err := database.NewStore(database.Dialect(d.dialect), table)
	if err != nil {
		return nil, errors.Join(ErrCreateMigrator, err)
	}
	provider, err := goose.NewProvider("", d.DB.DB, migrations,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, errors.Join(ErrCreateMigrator, err)
	}
	return provider, nil
}
