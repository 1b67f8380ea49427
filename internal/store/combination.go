// Package store declares the persistence contracts for harvest state.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Status mirrors the combinations status column.
type Status string

// Combination statuses persisted in combinations.status.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Combination is one unit of search work, identified by (location, industry_name).
type Combination struct {
	// Location is half of the uniqueness key, e.g. "New York, NY".
	Location string
	// EmployeeRanges is the descriptive size-bucket string shared by the
	// whole search space; it is not part of the identity key.
	EmployeeRanges string
	// IndustryID is the vendor's opaque identifier for IndustryName.
	IndustryID string
	// IndustryName is the other half of the uniqueness key.
	IndustryName string
	// Status is pending/in_progress/completed/failed.
	Status Status
	// ResultsCount is set when and only when Status is completed.
	ResultsCount *int
	// LeasedAt records when the combination last entered in_progress,
	// so stale leases can be reclaimed after a crash.
	LeasedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusCounts aggregates combinations by status across the whole store.
type StatusCounts struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// Filter narrows combination selection. Zero value matches the default
// work queue: everything pending or failed.
type Filter struct {
	// Statuses to match; empty means {pending, failed}.
	Statuses []Status
	// Location is a case-insensitive substring match on location.
	Location string
	// Industry is a case-insensitive substring match on industry_name.
	Industry string
	// Limit truncates the result when > 0.
	Limit int
}

// NormalizedStatuses returns the effective status set for the filter.
func (f Filter) NormalizedStatuses() []Status {
	if len(f.Statuses) == 0 {
		return []Status{StatusPending, StatusFailed}
	}
	return f.Statuses
}

// CombinationRepository persists the search-combination work queue.
//
// All mutation is single-row or unordered-batch; there are no cross-row
// transactions. BulkInsertPending must never overwrite an existing row.
type CombinationRepository interface {
	// BulkInsertPending inserts the given combinations where the
	// (location, industry_name) pair is absent and reports how many rows
	// were actually inserted. Existing rows are left untouched.
	BulkInsertPending(ctx context.Context, combos []Combination) (int64, error)

	// List returns combinations matching the filter in store-stable order,
	// projected to the fields needed for dispatch.
	List(ctx context.Context, f Filter) ([]Combination, error)

	// CountByStatus returns unfiltered global counts.
	CountByStatus(ctx context.Context) (StatusCounts, error)

	// MarkInProgress transitions one combination to in_progress and stamps
	// its lease.
	MarkInProgress(ctx context.Context, location, industryName string) error

	// MarkCompleted transitions one combination to completed and records
	// the discovered-results count.
	MarkCompleted(ctx context.Context, location, industryName string, resultsCount int) error

	// MarkFailed transitions one combination to failed, leaving any prior
	// results_count untouched.
	MarkFailed(ctx context.Context, location, industryName string) error

	// ResetFailed transitions all failed combinations back to pending and
	// returns the number of rows changed.
	ResetFailed(ctx context.Context) (int64, error)

	// ReclaimStale returns in_progress combinations whose lease is older
	// than the threshold back to pending.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)

	// HasGenerationMarker reports whether a completed generation run with
	// the given input fingerprint has been recorded.
	HasGenerationMarker(ctx context.Context, fingerprint string) (bool, error)

	// SaveGenerationMarker records a completed generation run.
	SaveGenerationMarker(ctx context.Context, fingerprint string, total int64) error
}
