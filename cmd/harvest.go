package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/apollo"
	"github.com/orgharvest/orgharvest/internal/app"
	"github.com/orgharvest/orgharvest/internal/clock/system"
	"github.com/orgharvest/orgharvest/internal/harvest"
	"github.com/orgharvest/orgharvest/internal/store"
)

type harvestFlags struct {
	statuses       []string
	location       string
	industry       string
	limit          int
	resetFailed    bool
	skipGeneration bool
	batchSize      int
	cookiesFile    string
	headersFile    string
}

// newHarvestCmd creates the 'harvest' subcommand: the full run pipeline of
// optional reset, generation, selection, and the paced drive.
func newHarvestCmd() *cobra.Command {
	flags := &harvestFlags{}
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Generates missing combinations and harvests the selected queue",
		Long: `Ensures the combination space is generated, selects the combinations
matching the filters (pending and failed by default), and processes them
sequentially against the vendor API with randomized pacing between items.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvestCommand(cmd, flags)
		},
	}
	cmd.Flags().StringSliceVar(&flags.statuses, "status", nil, "statuses to select (default pending,failed)")
	cmd.Flags().StringVar(&flags.location, "location", "", "substring filter on location")
	cmd.Flags().StringVar(&flags.industry, "industry", "", "substring filter on industry name")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum combinations to process (0 = no limit)")
	cmd.Flags().BoolVar(&flags.resetFailed, "reset-failed", false, "move failed combinations back to pending first")
	cmd.Flags().BoolVar(&flags.skipGeneration, "skip-generation", false, "skip the generation pass")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "generation insert batch size (0 = configured default)")
	cmd.Flags().StringVar(&flags.cookiesFile, "cookies-file", "", "vendor cookies JSON file (overrides config)")
	cmd.Flags().StringVar(&flags.headersFile, "headers-file", "", "vendor headers JSON file (overrides config)")
	return cmd
}

func runHarvestCommand(cmd *cobra.Command, flags *harvestFlags) error {
	ctx := cmd.Context()
	a, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	logger := a.Logger()
	cfg := a.Config()

	// Credentials are a run precondition: fail before touching any
	// combination, not per item.
	cookiesFile := cfg.Vendor.CookiesFile
	if flags.cookiesFile != "" {
		cookiesFile = flags.cookiesFile
	}
	headersFile := cfg.Vendor.HeadersFile
	if flags.headersFile != "" {
		headersFile = flags.headersFile
	}
	creds, err := apollo.LoadCredentials(cookiesFile, headersFile)
	if err != nil {
		return fmt.Errorf("load vendor credentials: %w", err)
	}

	if flags.resetFailed {
		n, err := a.Combinations().ResetFailed(ctx)
		if err != nil {
			return fmt.Errorf("reset failed combinations: %w", err)
		}
		logger.Info("failed combinations reset to pending", zap.Int64("count", n))
	}

	if !flags.skipGeneration {
		if err := runGeneration(ctx, a, flags.batchSize); err != nil {
			return err
		}
	}

	reclaimed, err := a.Combinations().ReclaimStale(ctx, cfg.StaleLease())
	if err != nil {
		return fmt.Errorf("reclaim stale leases: %w", err)
	}
	if reclaimed > 0 {
		logger.Info("stale in_progress combinations reclaimed", zap.Int64("count", reclaimed))
	}

	filter := store.Filter{
		Location: flags.location,
		Industry: flags.industry,
		Limit:    flags.limit,
	}
	for _, s := range flags.statuses {
		filter.Statuses = append(filter.Statuses, store.Status(strings.TrimSpace(s)))
	}
	queue, err := harvest.NewSelector(a.Combinations()).Select(ctx, filter)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		logger.Info("nothing to harvest for the given filters")
		return nil
	}
	logger.Info("harvest queue selected", zap.Int("combinations", len(queue)))

	minPace, maxPace := cfg.PaceWindow()
	pacer := harvest.NewJitterPacer(minPace, maxPace)
	client := apollo.NewClient(apollo.ClientConfig{
		BaseURL:           cfg.Vendor.BaseURL,
		Timeout:           cfg.VendorTimeout(),
		MaxRetries:        cfg.Vendor.MaxRetries,
		RequestsPerSecond: cfg.Vendor.RequestsPerSecond,
	}, creds, logger)
	searcher := apollo.NewSearcher(
		client, a.Organizations(), a.Industries(), a.Keywords(), a.Archive(), pacer, logger)

	driver := harvest.NewDriver(
		a.Combinations(), searcher, pacer, system.New(), a.Events(), logger)
	report, err := driver.Run(ctx, queue)
	if err != nil {
		return fmt.Errorf("harvest run: %w", err)
	}
	logger.Info("harvest complete",
		zap.Int("processed", report.Processed),
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed))
	return nil
}

// runGeneration loads the enumeration inputs and runs one generation pass.
// Shared by the harvest and generate commands.
func runGeneration(ctx context.Context, a *app.App, batchSize int) error {
	cfg := a.Config()
	if batchSize <= 0 {
		batchSize = cfg.Harvest.BatchSize
	}

	locations, err := harvest.LoadLocations(cfg.DataFiles.Locations)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	industries, err := harvest.LoadIndustries(cfg.DataFiles.Industries)
	if err != nil {
		return fmt.Errorf("load industries: %w", err)
	}
	inputs := harvest.Inputs{
		Locations:      locations,
		EmployeeRanges: []string{cfg.Harvest.EmployeeRanges},
		Industries:     industries,
	}

	generator := harvest.NewGenerator(a.Combinations(), batchSize, a.Logger())
	stats, err := generator.Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("generate combinations: %w", err)
	}
	a.Logger().Info("generation pass done",
		zap.Int64("total", stats.Total),
		zap.Int64("pending", stats.Pending),
		zap.Int64("new_added", stats.NewlyInserted),
		zap.Bool("skipped", stats.SkippedGeneration))
	return nil
}
