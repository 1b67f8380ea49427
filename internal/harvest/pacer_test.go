package harvest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgharvest/orgharvest/internal/harvest"
)

func TestJitterPacer_PausesWithinWindow(t *testing.T) {
	pacer := harvest.NewJitterPacer(time.Millisecond, 5*time.Millisecond)

	start := time.Now()
	require.NoError(t, pacer.Pause(context.Background()))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, time.Millisecond)
}

func TestJitterPacer_SwapsInvertedBounds(t *testing.T) {
	pacer := harvest.NewJitterPacer(10*time.Millisecond, time.Millisecond)
	assert.Equal(t, pacer.Min, pacer.Max)
}

func TestJitterPacer_HonorsCancellation(t *testing.T) {
	pacer := harvest.NewJitterPacer(time.Minute, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- pacer.Pause(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("pause did not return after cancellation")
	}
}

func TestNoopPacer_NeverWaits(t *testing.T) {
	start := time.Now()
	require.NoError(t, harvest.NoopPacer{}.Pause(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
