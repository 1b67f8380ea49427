// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orgharvest/orgharvest/internal/store"
)

// Pool is the subset of pgxpool.Pool the stores need. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// CombinationStore implements store.CombinationRepository on Postgres.
type CombinationStore struct {
	pool Pool
}

// NewCombinationStore connects a new pool for combination persistence.
func NewCombinationStore(ctx context.Context, dsn string) (*CombinationStore, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &CombinationStore{pool: pool}, nil
}

// NewCombinationStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewCombinationStoreWithPool(pool Pool) (*CombinationStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &CombinationStore{pool: pool}, nil
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("db.dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// Close closes the underlying connection pool.
func (s *CombinationStore) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pool so sibling stores can share it.
func (s *CombinationStore) Pool() Pool {
	return s.pool
}

// BulkInsertPending inserts the batch with a single unordered multi-row
// statement. The unique (location, industry_name) constraint plus
// ON CONFLICT DO NOTHING make re-runs idempotent: existing rows keep their
// status, results_count and timestamps.
func (s *CombinationStore) BulkInsertPending(ctx context.Context, combos []store.Combination) (int64, error) {
	if len(combos) == 0 {
		return 0, nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO combinations
		(location, employee_ranges, industry_id, industry_name, status, created_at, updated_at) VALUES `)
	args := make([]any, 0, len(combos)*4)
	for i, c := range combos {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, 'pending', NOW(), NOW())", base+1, base+2, base+3, base+4)
		args = append(args, c.Location, c.EmployeeRanges, c.IndustryID, c.IndustryName)
	}
	sb.WriteString(" ON CONFLICT (location, industry_name) DO NOTHING")

	tag, err := s.pool.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk insert combinations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns combinations matching the filter in insertion order,
// projected to the dispatch fields.
func (s *CombinationStore) List(ctx context.Context, f store.Filter) ([]store.Combination, error) {
	statuses := make([]string, 0, 2)
	for _, st := range f.NormalizedStatuses() {
		statuses = append(statuses, string(st))
	}

	query := `SELECT location, employee_ranges, industry_id, industry_name, status
		FROM combinations WHERE status = ANY($1)`
	args := []any{statuses}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		query += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if f.Industry != "" {
		args = append(args, "%"+f.Industry+"%")
		query += fmt.Sprintf(" AND industry_name ILIKE $%d", len(args))
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list combinations: %w", err)
	}
	defer rows.Close()

	var combos []store.Combination
	for rows.Next() {
		var c store.Combination
		if err := rows.Scan(&c.Location, &c.EmployeeRanges, &c.IndustryID, &c.IndustryName, &c.Status); err != nil {
			return nil, fmt.Errorf("scan combination row: %w", err)
		}
		combos = append(combos, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate combination rows: %w", err)
	}
	return combos, nil
}

// CountByStatus returns unfiltered global counts by status.
func (s *CombinationStore) CountByStatus(ctx context.Context) (store.StatusCounts, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM combinations GROUP BY status`)
	if err != nil {
		return store.StatusCounts{}, fmt.Errorf("count combinations: %w", err)
	}
	defer rows.Close()

	var counts store.StatusCounts
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return store.StatusCounts{}, fmt.Errorf("scan status count: %w", err)
		}
		counts.Total += n
		switch store.Status(status) {
		case store.StatusPending:
			counts.Pending = n
		case store.StatusInProgress:
			counts.InProgress = n
		case store.StatusCompleted:
			counts.Completed = n
		case store.StatusFailed:
			counts.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return store.StatusCounts{}, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// MarkInProgress stamps the lease and moves the combination to in_progress.
func (s *CombinationStore) MarkInProgress(ctx context.Context, location, industryName string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE combinations
		SET status = 'in_progress', leased_at = NOW(), updated_at = NOW()
		WHERE location = $1 AND industry_name = $2`, location, industryName)
	if err != nil {
		return fmt.Errorf("mark in_progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkCompleted records the terminal success state and its results count.
func (s *CombinationStore) MarkCompleted(ctx context.Context, location, industryName string, resultsCount int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE combinations
		SET status = 'completed', results_count = $3, leased_at = NULL, updated_at = NOW()
		WHERE location = $1 AND industry_name = $2`, location, industryName, resultsCount)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkFailed records the terminal failure state. results_count is untouched.
func (s *CombinationStore) MarkFailed(ctx context.Context, location, industryName string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE combinations
		SET status = 'failed', leased_at = NULL, updated_at = NOW()
		WHERE location = $1 AND industry_name = $2`, location, industryName)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ResetFailed moves every failed combination back to pending.
func (s *CombinationStore) ResetFailed(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE combinations
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'failed'`)
	if err != nil {
		return 0, fmt.Errorf("reset failed combinations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReclaimStale moves in_progress combinations with an expired lease back to
// pending so a crashed run's work re-enters the queue. The cutoff is computed
// server-side because leased_at is stamped with the server's NOW().
func (s *CombinationStore) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE combinations
		SET status = 'pending', leased_at = NULL, updated_at = NOW()
		WHERE status = 'in_progress' AND leased_at < NOW() - make_interval(secs => $1)`,
		olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("reclaim stale combinations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// HasGenerationMarker reports whether the given input fingerprint has a
// recorded completed generation run.
func (s *CombinationStore) HasGenerationMarker(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM generation_runs WHERE fingerprint = $1)`, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check generation marker: %w", err)
	}
	return exists, nil
}

// SaveGenerationMarker records a completed generation run for the fingerprint.
func (s *CombinationStore) SaveGenerationMarker(ctx context.Context, fingerprint string, total int64) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO generation_runs (fingerprint, total, completed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (fingerprint) DO UPDATE SET total = EXCLUDED.total, completed_at = NOW()`,
		fingerprint, total)
	if err != nil {
		return fmt.Errorf("save generation marker: %w", err)
	}
	return nil
}
