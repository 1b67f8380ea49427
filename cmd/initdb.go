package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgharvest/orgharvest/internal/storage/postgres"
)

// newInitDBCmd creates the 'initdb' subcommand, which creates the schema.
func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Creates the database tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := postgres.EnsureSchema(cmd.Context(), a.Pool()); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
			a.Logger().Info("database schema ready")
			return nil
		},
	}
}
