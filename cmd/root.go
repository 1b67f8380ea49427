// Package cmd defines and implements the CLI commands for the orgharvest
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orgharvest/orgharvest/internal/app"
	"github.com/orgharvest/orgharvest/internal/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. It is a variable so tests can replace
// it with a factory that returns a pre-built App.
var newApp = func(ctx context.Context, cfg config.Config) (*app.App, error) {
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command. Service construction
// happens in PersistentPreRunE so every subcommand sees an initialized App.
// Teardown is the returned cleanup func rather than PersistentPostRun:
// cobra skips the post hooks when RunE fails, and the pool and publisher
// must be closed on that path too.
func newRootCmd() (*cobra.Command, func()) {
	var services *app.App
	cmd := &cobra.Command{
		Use:   "orgharvest",
		Short: "A paced business-directory harvester.",
		Long: `orgharvest enumerates location x employee-range x industry search
combinations, walks them sequentially against the vendor directory API at a
human-like pace, and persists every discovered organization. It also serves
a small read API over the harvested data.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			services = appInstance
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default reads ORGHARVEST_* env)")

	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInitDBCmd())

	cleanup := func() {
		if services != nil {
			services.Close()
		}
	}
	return cmd, cleanup
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. Services are torn down after the command
// returns, whether it succeeded or not.
func Execute() {
	cmd, cleanup := newRootCmd()
	err := cmd.Execute()
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
