package main

import (
	"github.com/spf13/cobra"

	"github.com/ojieame12/concierge-clean-sub002/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			ui.Success("Schema applied (%s)", cfg.Database.Driver)
			return nil
		},
	}
}
