// Package harvest implements the combination-tracking core: enumerating the
// search space, selecting work, and driving each combination through its
// status lifecycle.
package harvest

import (
	"context"
	"time"

	"github.com/orgharvest/orgharvest/internal/store"
)

// Searcher is the external collaborator that executes one combination's
// search, persists whatever organizations it discovers, and reports how many
// it found. A non-nil error marks the combination failed; the count is only
// meaningful when the error is nil.
type Searcher interface {
	Search(ctx context.Context, combo store.Combination) (int, error)
}

// Pacer injects the inter-item delay so runs respect the vendor's implicit
// rate limits. Tests substitute a zero-delay implementation.
type Pacer interface {
	Pause(ctx context.Context) error
}

// Clock abstracts time.Now for deterministic progress reporting in tests.
type Clock interface {
	Now() time.Time
}
