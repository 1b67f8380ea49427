package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgharvest/orgharvest/internal/storage/memory"
	"github.com/orgharvest/orgharvest/internal/store"
)

func TestCombinationStore_InsertIsConditional(t *testing.T) {
	s := memory.NewCombinationStore()
	ctx := context.Background()

	combos := []store.Combination{
		{Location: "New York, NY", IndustryName: "Technology", IndustryID: "tag-tech"},
	}
	n, err := s.BulkInsertPending(ctx, combos)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.MarkInProgress(ctx, "New York, NY", "Technology"))
	require.NoError(t, s.MarkCompleted(ctx, "New York, NY", "Technology", 9))

	// Re-inserting the same identity must not reset the harvested state.
	n, err = s.BulkInsertPending(ctx, combos)
	require.NoError(t, err)
	assert.Zero(t, n)

	c, ok := s.Get("New York, NY", "Technology")
	require.True(t, ok)
	assert.Equal(t, store.StatusCompleted, c.Status)
	require.NotNil(t, c.ResultsCount)
	assert.Equal(t, 9, *c.ResultsCount)
}

func TestCombinationStore_MarkUnknownReturnsNotFound(t *testing.T) {
	s := memory.NewCombinationStore()
	err := s.MarkFailed(context.Background(), "Nowhere, XX", "Ghosts")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCombinationStore_ReclaimStale(t *testing.T) {
	s := memory.NewCombinationStore()
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetNowFunc(func() time.Time { return current })

	_, err := s.BulkInsertPending(ctx, []store.Combination{
		{Location: "New York, NY", IndustryName: "Technology"},
		{Location: "New York, NY", IndustryName: "Healthcare"},
	})
	require.NoError(t, err)
	require.NoError(t, s.MarkInProgress(ctx, "New York, NY", "Technology"))

	// A fresh lease is not reclaimable.
	n, err := s.ReclaimStale(ctx, 6*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	current = current.Add(7 * time.Hour)
	n, err = s.ReclaimStale(ctx, 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	c, ok := s.Get("New York, NY", "Technology")
	require.True(t, ok)
	assert.Equal(t, store.StatusPending, c.Status)
	assert.Nil(t, c.LeasedAt)
}

func TestCombinationStore_ResetFailed(t *testing.T) {
	s := memory.NewCombinationStore()
	ctx := context.Background()

	_, err := s.BulkInsertPending(ctx, []store.Combination{
		{Location: "A", IndustryName: "X"},
		{Location: "B", IndustryName: "Y"},
		{Location: "C", IndustryName: "Z"},
	})
	require.NoError(t, err)
	require.NoError(t, s.MarkInProgress(ctx, "A", "X"))
	require.NoError(t, s.MarkFailed(ctx, "A", "X"))
	require.NoError(t, s.MarkInProgress(ctx, "B", "Y"))
	require.NoError(t, s.MarkCompleted(ctx, "B", "Y", 1))

	n, err := s.ResetFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Pending)
	assert.Equal(t, int64(1), counts.Completed)
	assert.Zero(t, counts.Failed)
}

func TestCombinationStore_ListPreservesInsertionOrder(t *testing.T) {
	s := memory.NewCombinationStore()
	ctx := context.Background()

	_, err := s.BulkInsertPending(ctx, []store.Combination{
		{Location: "A", IndustryName: "X"},
		{Location: "B", IndustryName: "Y"},
		{Location: "C", IndustryName: "Z"},
	})
	require.NoError(t, err)

	combos, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, combos, 3)
	assert.Equal(t, "A", combos[0].Location)
	assert.Equal(t, "C", combos[2].Location)
}
