package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/orgharvest/orgharvest/internal/store"
)

// OrganizationStore is an in-memory store.OrganizationRepository.
type OrganizationStore struct {
	mu     sync.RWMutex
	byID   map[int64]store.Organization
	ids    map[string]int64
	nextID int64
	now    func() time.Time
}

// NewOrganizationStore constructs an empty OrganizationStore.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		byID:   make(map[int64]store.Organization),
		ids:    make(map[string]int64),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Upsert inserts or replaces the organization keyed by apollo_id.
func (s *OrganizationStore) Upsert(_ context.Context, org store.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if id, ok := s.ids[org.ApolloID]; ok {
		existing := s.byID[id]
		org.ID = id
		org.CreatedAt = existing.CreatedAt
		org.UpdatedAt = now
		s.byID[id] = org
		return nil
	}
	org.ID = s.nextID
	s.nextID++
	org.CreatedAt = now
	org.UpdatedAt = now
	s.byID[org.ID] = org
	s.ids[org.ApolloID] = org.ID
	return nil
}

// Get loads one organization by primary key.
func (s *OrganizationStore) Get(_ context.Context, id int64) (store.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.byID[id]
	if !ok {
		return store.Organization{}, store.ErrNotFound
	}
	return org, nil
}

// GetByApolloID loads one organization by vendor identifier.
func (s *OrganizationStore) GetByApolloID(_ context.Context, apolloID string) (store.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[apolloID]
	if !ok {
		return store.Organization{}, store.ErrNotFound
	}
	return s.byID[id], nil
}

// List returns a page of organizations ordered by id.
func (s *OrganizationStore) List(_ context.Context, limit, offset int) ([]store.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Organization
	skipped := 0
	for id := int64(1); id < s.nextID; id++ {
		org, ok := s.byID[id]
		if !ok {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, org)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the total number of organizations.
func (s *OrganizationStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

// ReferenceStore is an in-memory store.ReferenceRepository.
type ReferenceStore struct {
	mu     sync.RWMutex
	byName map[string]store.NamedRecord
	order  []string
	nextID int64
	now    func() time.Time
}

// NewReferenceStore constructs an empty ReferenceStore.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{
		byName: make(map[string]store.NamedRecord),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureAll inserts any absent names; existing records never change.
func (s *ReferenceStore) EnsureAll(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if _, ok := s.byName[name]; ok {
			continue
		}
		s.byName[name] = store.NamedRecord{ID: s.nextID, Name: name, CreatedAt: s.now()}
		s.nextID++
		s.order = append(s.order, name)
	}
	return nil
}

// List returns every record ordered by name.
func (s *ReferenceStore) List(_ context.Context) ([]store.NamedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]store.NamedRecord, 0, len(names))
	for _, name := range names {
		out = append(out, s.byName[name])
	}
	return out, nil
}
