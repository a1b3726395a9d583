package main

import (
	"github.com/spf13/cobra"

	"github.com/jwalitptl/caseops-api/internal/repository/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := opts.load()
			if err != nil {
				return err
			}
			db, err := openPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.MigrateUp(cmd.Context(), db); err != nil {
				return err
			}
			lg.Info("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := opts.load()
			if err != nil {
				return err
			}
			db, err := openPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.MigrateDown(cmd.Context(), db); err != nil {
				return err
			}
			lg.Info("migration rolled back")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			db, err := openPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return postgres.MigrationStatus(cmd.Context(), db)
		},
	})

	return cmd
}
