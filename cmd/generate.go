package cmd

import (
	"github.com/spf13/cobra"
)

// newGenerateCmd creates the 'generate' subcommand: a generation-only pass
// with no harvesting.
func newGenerateCmd() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates any missing search combinations",
		Long: `Enumerates the location x employee-range x industry cross-product and
inserts combinations that do not exist yet. Existing combinations are never
touched, so this is safe to re-run at any time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return runGeneration(cmd.Context(), a, batchSize)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "generation insert batch size (0 = configured default)")
	return cmd
}
