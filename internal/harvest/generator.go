package harvest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/store"
)

// DefaultBatchSize bounds how many conditional inserts ride one statement.
const DefaultBatchSize = 5000

// GenerationStats summarizes one generation pass.
type GenerationStats struct {
	store.StatusCounts
	// NewlyInserted counts combinations this pass actually created.
	NewlyInserted int64 `json:"new_added"`
	// SkippedGeneration is set when the fingerprint marker short-circuited
	// the enumeration.
	SkippedGeneration bool `json:"skipped_generation"`
}

// Generator ensures every (location, employee_ranges, industry) triple is
// represented in the combination store exactly once. It never rewrites an
// existing combination, so re-running is always safe.
type Generator struct {
	repo      store.CombinationRepository
	batchSize int
	logger    *zap.Logger
}

// NewGenerator constructs a Generator. batchSize <= 0 selects the default.
func NewGenerator(repo store.CombinationRepository, batchSize int, logger *zap.Logger) *Generator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Generator{repo: repo, batchSize: batchSize, logger: logger}
}

// Run enumerates the cross-product and inserts any missing combinations in
// unordered batches. A batch that fails to flush is logged and dropped;
// generation continues, and the dropped rows are picked up by the next run
// because inserts are conditional. The generation-complete marker is only
// recorded after a pass with no dropped batches.
func (g *Generator) Run(ctx context.Context, inputs Inputs) (GenerationStats, error) {
	if err := inputs.Validate(); err != nil {
		return GenerationStats{}, fmt.Errorf("validate inputs: %w", err)
	}

	total := inputs.TotalPotential()
	fingerprint := inputs.Fingerprint()

	done, err := g.repo.HasGenerationMarker(ctx, fingerprint)
	if err != nil {
		return GenerationStats{}, fmt.Errorf("check generation marker: %w", err)
	}
	if done {
		g.logger.Info("generation already complete for these inputs, skipping",
			zap.Int64("total_potential", total))
		counts, err := g.repo.CountByStatus(ctx)
		if err != nil {
			return GenerationStats{}, fmt.Errorf("count combinations: %w", err)
		}
		return GenerationStats{StatusCounts: counts, SkippedGeneration: true}, nil
	}

	g.logger.Info("generating combinations",
		zap.Int("locations", len(inputs.Locations)),
		zap.Int("employee_ranges", len(inputs.EmployeeRanges)),
		zap.Int("industries", len(inputs.Industries)),
		zap.Int64("total_potential", total))

	industryNames := inputs.IndustryNames()
	batch := make([]store.Combination, 0, g.batchSize)
	var inserted, processed int64
	dropped := false
	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := g.repo.BulkInsertPending(ctx, batch)
		if err != nil {
			// The batch is dropped, not retried; a later run re-inserts
			// whatever is missing.
			g.logger.Error("batch insert failed, dropping batch",
				zap.Int("batch_size", len(batch)), zap.Error(err))
			dropped = true
		} else {
			inserted += n
		}
		batch = batch[:0]
	}

	for _, location := range inputs.Locations {
		for _, ranges := range inputs.EmployeeRanges {
			for _, industry := range industryNames {
				if err := ctx.Err(); err != nil {
					return GenerationStats{}, fmt.Errorf("generation interrupted: %w", err)
				}
				batch = append(batch, store.Combination{
					Location:       location,
					EmployeeRanges: ranges,
					IndustryID:     inputs.Industries[industry],
					IndustryName:   industry,
				})
				processed++
				if len(batch) >= g.batchSize {
					flush()
					g.logger.Debug("generation progress",
						zap.Int64("processed", processed),
						zap.Int64("total_potential", total),
						zap.Int64("newly_inserted", inserted))
				}
			}
		}
	}
	flush()

	if !dropped {
		if err := g.repo.SaveGenerationMarker(ctx, fingerprint, total); err != nil {
			return GenerationStats{}, fmt.Errorf("save generation marker: %w", err)
		}
	}

	counts, err := g.repo.CountByStatus(ctx)
	if err != nil {
		return GenerationStats{}, fmt.Errorf("count combinations: %w", err)
	}
	g.logger.Info("generation finished",
		zap.Int64("total", counts.Total),
		zap.Int64("pending", counts.Pending),
		zap.Int64("completed", counts.Completed),
		zap.Int64("failed", counts.Failed),
		zap.Int64("in_progress", counts.InProgress),
		zap.Int64("newly_inserted", inserted))
	return GenerationStats{StatusCounts: counts, NewlyInserted: inserted}, nil
}
