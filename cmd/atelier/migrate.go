package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/logger"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, cfg BaseConfig, d *db.DB) error {
				return repository.Migrate(ctx, d, cfg.DB.MigrationsTable, logger.New(cfg.Log))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, cfg BaseConfig, d *db.DB) error {
				statuses, err := repository.MigrationStatus(ctx, d, cfg.DB.MigrationsTable)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, s := range statuses {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return w.Flush()
			})
		},
	})
	return cmd
}

// withDatabase connects with the base configuration and closes the handle after fn.
func withDatabase(ctx context.Context, fn func(context.Context, BaseConfig, *db.DB) error) error {
	cfg, err := loadConfig[BaseConfig]()
	if err != nil {
		return err
	}
	d, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(ctx, cfg, d)
}
