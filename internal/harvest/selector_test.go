package harvest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgharvest/orgharvest/internal/harvest"
	"github.com/orgharvest/orgharvest/internal/storage/memory"
	"github.com/orgharvest/orgharvest/internal/store"
)

func seedMixedStatuses(t *testing.T, repo *memory.CombinationStore) {
	t.Helper()
	ctx := context.Background()
	combos := []store.Combination{
		{Location: "New York, NY", IndustryName: "Technology"},
		{Location: "New York, NY", IndustryName: "Healthcare"},
		{Location: "Los Angeles, CA", IndustryName: "Technology"},
		{Location: "Los Angeles, CA", IndustryName: "Healthcare"},
	}
	_, err := repo.BulkInsertPending(ctx, combos)
	require.NoError(t, err)

	require.NoError(t, repo.MarkInProgress(ctx, "New York, NY", "Technology"))
	require.NoError(t, repo.MarkCompleted(ctx, "New York, NY", "Technology", 5))
	require.NoError(t, repo.MarkInProgress(ctx, "New York, NY", "Healthcare"))
	require.NoError(t, repo.MarkFailed(ctx, "New York, NY", "Healthcare"))
}

func TestSelector_DefaultsToPendingAndFailed(t *testing.T) {
	repo := memory.NewCombinationStore()
	seedMixedStatuses(t, repo)

	queue, err := harvest.NewSelector(repo).Select(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, queue, 3)
	for _, c := range queue {
		assert.NotEqual(t, store.StatusCompleted, c.Status)
		assert.NotEqual(t, store.StatusInProgress, c.Status)
	}
}

func TestSelector_ExplicitStatusFilter(t *testing.T) {
	repo := memory.NewCombinationStore()
	seedMixedStatuses(t, repo)

	queue, err := harvest.NewSelector(repo).Select(context.Background(),
		store.Filter{Statuses: []store.Status{store.StatusFailed}})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "Healthcare", queue[0].IndustryName)
}

func TestSelector_SubstringFiltersAndLimit(t *testing.T) {
	repo := memory.NewCombinationStore()
	seedMixedStatuses(t, repo)
	selector := harvest.NewSelector(repo)
	ctx := context.Background()

	queue, err := selector.Select(ctx, store.Filter{Location: "angeles"})
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	queue, err = selector.Select(ctx, store.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestSelector_Counts(t *testing.T) {
	repo := memory.NewCombinationStore()
	seedMixedStatuses(t, repo)

	counts, err := harvest.NewSelector(repo).Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts.Total)
	assert.Equal(t, int64(2), counts.Pending)
	assert.Equal(t, int64(1), counts.Completed)
	assert.Equal(t, int64(1), counts.Failed)
}
