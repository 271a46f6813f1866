package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/simaogato/autofund-backend/internal/adapter/repository/postgres"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the engine's tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if a.db == nil {
				return errors.New("migrate requires the postgres driver")
			}
			if err := postgres.Migrate(cmd.Context(), a.db); err != nil {
				return err
			}
			a.logger.Infow("Schema applied")
			return nil
		},
	}
}
