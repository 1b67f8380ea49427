package harvest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/harvest"
	"github.com/orgharvest/orgharvest/internal/storage/memory"
	"github.com/orgharvest/orgharvest/internal/store"
)

func testInputs() harvest.Inputs {
	return harvest.Inputs{
		Locations:      []string{"New York, NY", "Los Angeles, CA"},
		EmployeeRanges: []string{"1-10, 10-20"},
		Industries: map[string]string{
			"Technology": "tag-tech",
			"Healthcare": "tag-health",
		},
	}
}

func TestGenerator_CreatesFullCrossProduct(t *testing.T) {
	repo := memory.NewCombinationStore()
	gen := harvest.NewGenerator(repo, 0, zap.NewNop())

	stats, err := gen.Run(context.Background(), testInputs())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.NewlyInserted)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(4), stats.Pending)
	assert.False(t, stats.SkippedGeneration)

	combo, ok := repo.Get("New York, NY", "Technology")
	require.True(t, ok)
	assert.Equal(t, store.StatusPending, combo.Status)
	assert.Equal(t, "tag-tech", combo.IndustryID)
	assert.Equal(t, "1-10, 10-20", combo.EmployeeRanges)
	assert.Nil(t, combo.ResultsCount)
}

func TestGenerator_SecondRunSkipsViaMarker(t *testing.T) {
	repo := memory.NewCombinationStore()
	gen := harvest.NewGenerator(repo, 0, zap.NewNop())
	ctx := context.Background()

	_, err := gen.Run(ctx, testInputs())
	require.NoError(t, err)

	stats, err := gen.Run(ctx, testInputs())
	require.NoError(t, err)
	assert.True(t, stats.SkippedGeneration)
	assert.Zero(t, stats.NewlyInserted)
	assert.Equal(t, int64(4), stats.Total)
}

func TestGenerator_NeverOverwritesHarvestedRows(t *testing.T) {
	repo := memory.NewCombinationStore()
	gen := harvest.NewGenerator(repo, 0, zap.NewNop())
	ctx := context.Background()

	_, err := gen.Run(ctx, testInputs())
	require.NoError(t, err)

	require.NoError(t, repo.MarkInProgress(ctx, "New York, NY", "Technology"))
	require.NoError(t, repo.MarkCompleted(ctx, "New York, NY", "Technology", 42))
	require.NoError(t, repo.MarkInProgress(ctx, "Los Angeles, CA", "Healthcare"))
	require.NoError(t, repo.MarkFailed(ctx, "Los Angeles, CA", "Healthcare"))

	// Growing the space changes the fingerprint, forcing a real pass that
	// must leave the harvested rows alone.
	grown := testInputs()
	grown.Locations = append(grown.Locations, "Chicago, IL")
	stats, err := gen.Run(ctx, grown)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.NewlyInserted)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)

	completed, ok := repo.Get("New York, NY", "Technology")
	require.True(t, ok)
	assert.Equal(t, store.StatusCompleted, completed.Status)
	require.NotNil(t, completed.ResultsCount)
	assert.Equal(t, 42, *completed.ResultsCount)

	failed, ok := repo.Get("Los Angeles, CA", "Healthcare")
	require.True(t, ok)
	assert.Equal(t, store.StatusFailed, failed.Status)
}

func TestGenerator_SmallBatchesCoverEverything(t *testing.T) {
	repo := memory.NewCombinationStore()
	gen := harvest.NewGenerator(repo, 1, zap.NewNop())

	stats, err := gen.Run(context.Background(), testInputs())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.NewlyInserted)
}

// flakyCombinationRepo fails the first N batch inserts and then delegates.
type flakyCombinationRepo struct {
	*memory.CombinationStore
	failures int
}

func (r *flakyCombinationRepo) BulkInsertPending(ctx context.Context, combos []store.Combination) (int64, error) {
	if r.failures > 0 {
		r.failures--
		return 0, errors.New("connection reset by peer")
	}
	return r.CombinationStore.BulkInsertPending(ctx, combos)
}

func TestGenerator_DroppedBatchDefersMarkerUntilCleanPass(t *testing.T) {
	repo := &flakyCombinationRepo{CombinationStore: memory.NewCombinationStore(), failures: 1}
	gen := harvest.NewGenerator(repo, 1, zap.NewNop())
	ctx := context.Background()
	fingerprint := testInputs().Fingerprint()

	// First pass: one batch is dropped. The run still succeeds, but the
	// marker must not be recorded, or the dropped row would be skipped
	// forever.
	stats, err := gen.Run(ctx, testInputs())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.NewlyInserted)
	assert.Equal(t, int64(3), stats.Total)

	done, err := repo.HasGenerationMarker(ctx, fingerprint)
	require.NoError(t, err)
	assert.False(t, done)

	// Second pass: no marker means no skip; the missing row is re-inserted
	// and only then does the marker land.
	stats, err = gen.Run(ctx, testInputs())
	require.NoError(t, err)
	assert.False(t, stats.SkippedGeneration)
	assert.Equal(t, int64(1), stats.NewlyInserted)
	assert.Equal(t, int64(4), stats.Total)

	done, err = repo.HasGenerationMarker(ctx, fingerprint)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestGenerator_RejectsEmptyInputs(t *testing.T) {
	repo := memory.NewCombinationStore()
	gen := harvest.NewGenerator(repo, 0, zap.NewNop())

	inputs := testInputs()
	inputs.Locations = nil
	_, err := gen.Run(context.Background(), inputs)
	assert.Error(t, err)
}
