package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/metrics"
	"github.com/orgharvest/orgharvest/internal/publisher"
	"github.com/orgharvest/orgharvest/internal/store"
)

// RunReport summarizes one harvest run.
type RunReport struct {
	Processed int
	Completed int
	Failed    int
	Elapsed   time.Duration
}

// Driver walks the selected queue sequentially, transitioning each
// combination pending|failed -> in_progress -> completed|failed. One item's
// failure never aborts the run.
type Driver struct {
	repo     store.CombinationRepository
	searcher Searcher
	pacer    Pacer
	clock    Clock
	events   publisher.Publisher
	logger   *zap.Logger
}

// NewDriver constructs a Driver. events may be nil when completion
// notifications are disabled.
func NewDriver(
	repo store.CombinationRepository,
	searcher Searcher,
	pacer Pacer,
	clock Clock,
	events publisher.Publisher,
	logger *zap.Logger,
) *Driver {
	return &Driver{
		repo:     repo,
		searcher: searcher,
		pacer:    pacer,
		clock:    clock,
		events:   events,
		logger:   logger,
	}
}

// Run processes the queue in order. It returns early only on context
// cancellation; per-item errors are recorded on the combination and the run
// continues.
func (d *Driver) Run(ctx context.Context, queue []store.Combination) (RunReport, error) {
	report := RunReport{}
	start := d.clock.Now()
	for i, combo := range queue {
		if err := ctx.Err(); err != nil {
			report.Elapsed = d.clock.Now().Sub(start)
			return report, fmt.Errorf("run interrupted: %w", err)
		}

		d.logProgress(i, len(queue), combo, start, report.Completed)
		d.processOne(ctx, combo, &report)
		report.Processed++

		if i < len(queue)-1 {
			if err := d.pacer.Pause(ctx); err != nil {
				report.Elapsed = d.clock.Now().Sub(start)
				return report, fmt.Errorf("pacing interrupted: %w", err)
			}
		}
	}
	report.Elapsed = d.clock.Now().Sub(start)
	d.logger.Info("harvest run finished",
		zap.Int("processed", report.Processed),
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (d *Driver) processOne(ctx context.Context, combo store.Combination, report *RunReport) {
	if err := d.repo.MarkInProgress(ctx, combo.Location, combo.IndustryName); err != nil {
		d.logger.Error("mark in_progress failed",
			zap.String("location", combo.Location),
			zap.String("industry", combo.IndustryName),
			zap.Error(err))
		report.Failed++
		return
	}

	count, err := d.searcher.Search(ctx, combo)
	if err != nil {
		d.logger.Error("search failed",
			zap.String("location", combo.Location),
			zap.String("industry", combo.IndustryName),
			zap.Error(err))
		if markErr := d.repo.MarkFailed(ctx, combo.Location, combo.IndustryName); markErr != nil {
			d.logger.Error("mark failed errored",
				zap.String("location", combo.Location),
				zap.String("industry", combo.IndustryName),
				zap.Error(markErr))
		}
		metrics.ObserveCombination("failed")
		report.Failed++
		return
	}

	if err := d.repo.MarkCompleted(ctx, combo.Location, combo.IndustryName, count); err != nil {
		d.logger.Error("mark completed failed",
			zap.String("location", combo.Location),
			zap.String("industry", combo.IndustryName),
			zap.Error(err))
		report.Failed++
		return
	}
	metrics.ObserveCombination("completed")
	report.Completed++
	d.logger.Info("combination completed",
		zap.String("location", combo.Location),
		zap.String("industry", combo.IndustryName),
		zap.Int("results_count", count))
	d.publishCompletion(ctx, combo, count)
}

func (d *Driver) publishCompletion(ctx context.Context, combo store.Combination, count int) {
	if d.events == nil {
		return
	}
	event := publisher.CompletionEvent{
		Location:     combo.Location,
		IndustryName: combo.IndustryName,
		ResultsCount: count,
		FinishedAt:   d.clock.Now(),
	}
	// Notifications are best-effort; a publish failure never fails the item.
	if err := d.events.Publish(ctx, event); err != nil {
		d.logger.Warn("completion event publish failed",
			zap.String("location", combo.Location),
			zap.String("industry", combo.IndustryName),
			zap.Error(err))
	}
}

// logProgress reports position, elapsed time, and an ETA extrapolated from
// the average time per completed item. Purely observational.
func (d *Driver) logProgress(index, total int, combo store.Combination, start time.Time, completedInRun int) {
	fields := []zap.Field{
		zap.Int("position", index+1),
		zap.Int("queued", total),
		zap.String("location", combo.Location),
		zap.String("industry", combo.IndustryName),
	}
	if index > 0 && completedInRun > 0 {
		elapsed := d.clock.Now().Sub(start)
		avg := elapsed / time.Duration(completedInRun)
		remaining := avg * time.Duration(total-index)
		fields = append(fields,
			zap.Duration("elapsed", elapsed),
			zap.Duration("avg_per_item", avg),
			zap.Duration("estimated_remaining", remaining))
	}
	d.logger.Info("processing combination", fields...)
}
