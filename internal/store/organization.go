package store

import (
	"context"
	"time"
)

// Organization is a discovered directory record, keyed by the vendor's
// ApolloID. Re-discovery upserts the row and advances UpdatedAt.
type Organization struct {
	ID                int64     `json:"id"`
	ApolloID          string    `json:"apollo_id"`
	Name              string    `json:"name"`
	LinkedinURL       string    `json:"linkedin_url"`
	WebsiteURL        string    `json:"website_url"`
	FacebookURL       string    `json:"facebook_url"`
	Phone             string    `json:"phone"`
	NumberOfEmployees int       `json:"number_of_employees"`
	Industries        []string  `json:"industry"`
	Keywords          []string  `json:"keywords"`
	Address           string    `json:"address"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NamedRecord is a reference entity (industry or keyword) keyed by its
// free-text name. Created lazily, never updated.
type NamedRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// OrganizationRepository persists discovered organizations.
type OrganizationRepository interface {
	// Upsert inserts the organization or, if its apollo_id already exists,
	// replaces the mutable fields and advances updated_at.
	Upsert(ctx context.Context, org Organization) error

	// Get loads one organization by primary key or returns ErrNotFound.
	Get(ctx context.Context, id int64) (Organization, error)

	// GetByApolloID loads one organization by vendor id or returns ErrNotFound.
	GetByApolloID(ctx context.Context, apolloID string) (Organization, error)

	// List returns a page of organizations ordered by id.
	List(ctx context.Context, limit, offset int) ([]Organization, error)

	// Count returns the total number of organizations.
	Count(ctx context.Context) (int64, error)
}

// ReferenceRepository persists one name-keyed reference collection
// (industries or keywords).
type ReferenceRepository interface {
	// EnsureAll inserts any of the given names that are absent. Existing
	// names are left untouched.
	EnsureAll(ctx context.Context, names []string) error

	// List returns every record ordered by name.
	List(ctx context.Context) ([]NamedRecord, error)
}
