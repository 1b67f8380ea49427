package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newResetCmd creates the 'reset' subcommand, which re-queues every failed
// combination.
func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Moves all failed combinations back to pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.Combinations().ResetFailed(cmd.Context())
			if err != nil {
				return fmt.Errorf("reset failed combinations: %w", err)
			}
			a.Logger().Info("failed combinations reset to pending", zap.Int64("count", n))
			return nil
		},
	}
}
