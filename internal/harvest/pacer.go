package harvest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/orgharvest/orgharvest/internal/metrics"
)

// JitterPacer sleeps a duration drawn uniformly from [Min, Max] between
// items and between vendor result pages.
type JitterPacer struct {
	Min time.Duration
	Max time.Duration
}

// NewJitterPacer constructs the production pacer. The 15-20s window matches
// what the vendor tolerates without throttling.
func NewJitterPacer(min, max time.Duration) *JitterPacer {
	if max < min {
		max = min
	}
	return &JitterPacer{Min: min, Max: max}
}

// Pause blocks for the jittered delay or until the context is done.
func (p *JitterPacer) Pause(ctx context.Context) error {
	delay := p.Min
	if span := p.Max - p.Min; span > 0 {
		delay += rand.N(span + 1)
	}
	metrics.ObservePacingDelay(delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pause interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// NoopPacer never waits. Tests use it to avoid real sleeping.
type NoopPacer struct{}

// Pause returns immediately.
func (NoopPacer) Pause(context.Context) error { return nil }
