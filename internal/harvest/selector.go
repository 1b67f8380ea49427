package harvest

import (
	"context"
	"fmt"

	"github.com/orgharvest/orgharvest/internal/store"
)

// Selector builds the ordered work queue for a run from the combination
// store. Ordering is store-stable; callers must not assume anything beyond
// that.
type Selector struct {
	repo store.CombinationRepository
}

// NewSelector constructs a Selector.
func NewSelector(repo store.CombinationRepository) *Selector {
	return &Selector{repo: repo}
}

// Select returns the combinations matching the filter, truncated to the
// filter's limit when one is set.
func (s *Selector) Select(ctx context.Context, f store.Filter) ([]store.Combination, error) {
	combos, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("select combinations: %w", err)
	}
	return combos, nil
}

// Counts reports unfiltered global status counts, independent of any
// selection filter.
func (s *Selector) Counts(ctx context.Context) (store.StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return store.StatusCounts{}, fmt.Errorf("count combinations: %w", err)
	}
	return counts, nil
}
