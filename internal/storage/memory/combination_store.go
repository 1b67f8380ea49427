// Package memory provides in-memory store implementations for
// development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/orgharvest/orgharvest/internal/store"
)

type comboKey struct {
	location string
	industry string
}

// CombinationStore is an in-memory store.CombinationRepository.
type CombinationStore struct {
	mu      sync.RWMutex
	combos  map[comboKey]store.Combination
	order   []comboKey
	markers map[string]int64
	now     func() time.Time
}

// NewCombinationStore constructs an empty CombinationStore.
func NewCombinationStore() *CombinationStore {
	return &CombinationStore{
		combos:  make(map[comboKey]store.Combination),
		markers: make(map[string]int64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the store's clock. Tests use this to control
// created_at/updated_at stamps.
func (s *CombinationStore) SetNowFunc(now func() time.Time) {
	s.now = now
}

// BulkInsertPending inserts absent combinations as pending and leaves
// existing rows untouched.
func (s *CombinationStore) BulkInsertPending(_ context.Context, combos []store.Combination) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inserted int64
	for _, c := range combos {
		key := comboKey{c.Location, c.IndustryName}
		if _, exists := s.combos[key]; exists {
			continue
		}
		now := s.now()
		c.Status = store.StatusPending
		c.ResultsCount = nil
		c.CreatedAt = now
		c.UpdatedAt = now
		s.combos[key] = c
		s.order = append(s.order, key)
		inserted++
	}
	return inserted, nil
}

// List returns matching combinations in insertion order.
func (s *CombinationStore) List(_ context.Context, f store.Filter) ([]store.Combination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[store.Status]bool)
	for _, st := range f.NormalizedStatuses() {
		wanted[st] = true
	}
	var out []store.Combination
	for _, key := range s.order {
		c := s.combos[key]
		if !wanted[c.Status] {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(f.Location)) {
			continue
		}
		if f.Industry != "" && !strings.Contains(strings.ToLower(c.IndustryName), strings.ToLower(f.Industry)) {
			continue
		}
		out = append(out, c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// CountByStatus returns unfiltered global counts.
func (s *CombinationStore) CountByStatus(_ context.Context) (store.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts store.StatusCounts
	for _, c := range s.combos {
		counts.Total++
		switch c.Status {
		case store.StatusPending:
			counts.Pending++
		case store.StatusInProgress:
			counts.InProgress++
		case store.StatusCompleted:
			counts.Completed++
		case store.StatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

// MarkInProgress transitions one combination to in_progress.
func (s *CombinationStore) MarkInProgress(_ context.Context, location, industryName string) error {
	return s.update(location, industryName, func(c *store.Combination) {
		now := s.now()
		c.Status = store.StatusInProgress
		c.LeasedAt = &now
	})
}

// MarkCompleted transitions one combination to completed with its count.
func (s *CombinationStore) MarkCompleted(_ context.Context, location, industryName string, resultsCount int) error {
	return s.update(location, industryName, func(c *store.Combination) {
		c.Status = store.StatusCompleted
		c.ResultsCount = &resultsCount
		c.LeasedAt = nil
	})
}

// MarkFailed transitions one combination to failed.
func (s *CombinationStore) MarkFailed(_ context.Context, location, industryName string) error {
	return s.update(location, industryName, func(c *store.Combination) {
		c.Status = store.StatusFailed
		c.LeasedAt = nil
	})
}

// ResetFailed moves every failed combination back to pending.
func (s *CombinationStore) ResetFailed(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for key, c := range s.combos {
		if c.Status != store.StatusFailed {
			continue
		}
		c.Status = store.StatusPending
		c.UpdatedAt = s.now()
		s.combos[key] = c
		changed++
	}
	return changed, nil
}

// ReclaimStale moves in_progress combinations with an expired lease back
// to pending.
func (s *CombinationStore) ReclaimStale(_ context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-olderThan)
	var changed int64
	for key, c := range s.combos {
		if c.Status != store.StatusInProgress || c.LeasedAt == nil || !c.LeasedAt.Before(cutoff) {
			continue
		}
		c.Status = store.StatusPending
		c.LeasedAt = nil
		c.UpdatedAt = s.now()
		s.combos[key] = c
		changed++
	}
	return changed, nil
}

// HasGenerationMarker reports whether the fingerprint has been recorded.
func (s *CombinationStore) HasGenerationMarker(_ context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[fingerprint]
	return ok, nil
}

// SaveGenerationMarker records a completed generation run.
func (s *CombinationStore) SaveGenerationMarker(_ context.Context, fingerprint string, total int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[fingerprint] = total
	return nil
}

// Get fetches one combination for test assertions.
func (s *CombinationStore) Get(location, industryName string) (store.Combination, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.combos[comboKey{location, industryName}]
	return c, ok
}

// All returns every combination sorted by (location, industry) for test
// assertions.
func (s *CombinationStore) All() []store.Combination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Combination, 0, len(s.combos))
	for _, c := range s.combos {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].IndustryName < out[j].IndustryName
	})
	return out
}

func (s *CombinationStore) update(location, industryName string, apply func(*store.Combination)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := comboKey{location, industryName}
	c, ok := s.combos[key]
	if !ok {
		return store.ErrNotFound
	}
	apply(&c)
	c.UpdatedAt = s.now()
	s.combos[key] = c
	return nil
}
