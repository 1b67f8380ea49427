package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/orgharvest/orgharvest/internal/store"
)

// OrganizationStore implements store.OrganizationRepository on Postgres.
// The denormalized industry and keyword name lists ride JSONB columns.
type OrganizationStore struct {
	pool Pool
}

// NewOrganizationStore connects a new pool for organization persistence.
func NewOrganizationStore(ctx context.Context, dsn string) (*OrganizationStore, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &OrganizationStore{pool: pool}, nil
}

// NewOrganizationStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewOrganizationStoreWithPool(pool Pool) (*OrganizationStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &OrganizationStore{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *OrganizationStore) Close() {
	s.pool.Close()
}

// Upsert inserts the organization or replaces its mutable fields when the
// apollo_id already exists. updated_at always advances; created_at never
// changes after insert.
func (s *OrganizationStore) Upsert(ctx context.Context, org store.Organization) error {
	industries, err := json.Marshal(orEmpty(org.Industries))
	if err != nil {
		return fmt.Errorf("marshal industries: %w", err)
	}
	keywords, err := json.Marshal(orEmpty(org.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO organizations
		(apollo_id, name, linkedin_url, website_url, facebook_url, phone,
		 number_of_employees, industries, keywords, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (apollo_id) DO UPDATE SET
			name = EXCLUDED.name,
			linkedin_url = EXCLUDED.linkedin_url,
			website_url = EXCLUDED.website_url,
			facebook_url = EXCLUDED.facebook_url,
			phone = EXCLUDED.phone,
			number_of_employees = EXCLUDED.number_of_employees,
			industries = EXCLUDED.industries,
			keywords = EXCLUDED.keywords,
			address = EXCLUDED.address,
			updated_at = NOW()`,
		org.ApolloID, org.Name, org.LinkedinURL, org.WebsiteURL, org.FacebookURL,
		org.Phone, org.NumberOfEmployees, industries, keywords, org.Address)
	if err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	return nil
}

const organizationColumns = `id, apollo_id, name, linkedin_url, website_url, facebook_url,
	phone, number_of_employees, industries, keywords, address, created_at, updated_at`

// Get loads one organization by primary key.
func (s *OrganizationStore) Get(ctx context.Context, id int64) (store.Organization, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrganization(row)
}

// GetByApolloID loads one organization by vendor identifier.
func (s *OrganizationStore) GetByApolloID(ctx context.Context, apolloID string) (store.Organization, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE apollo_id = $1`, apolloID)
	return scanOrganization(row)
}

// List returns a page of organizations ordered by id.
func (s *OrganizationStore) List(ctx context.Context, limit, offset int) ([]store.Organization, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+organizationColumns+` FROM organizations ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []store.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization rows: %w", err)
	}
	return orgs, nil
}

// Count returns the total number of organizations.
func (s *OrganizationStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count organizations: %w", err)
	}
	return n, nil
}

func scanOrganization(row pgx.Row) (store.Organization, error) {
	var org store.Organization
	var industries, keywords []byte
	err := row.Scan(
		&org.ID, &org.ApolloID, &org.Name, &org.LinkedinURL, &org.WebsiteURL,
		&org.FacebookURL, &org.Phone, &org.NumberOfEmployees, &industries,
		&keywords, &org.Address, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Organization{}, store.ErrNotFound
		}
		return store.Organization{}, fmt.Errorf("scan organization: %w", err)
	}
	if err := json.Unmarshal(industries, &org.Industries); err != nil {
		return store.Organization{}, fmt.Errorf("unmarshal industries: %w", err)
	}
	if err := json.Unmarshal(keywords, &org.Keywords); err != nil {
		return store.Organization{}, fmt.Errorf("unmarshal keywords: %w", err)
	}
	return org, nil
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

// ReferenceStore implements store.ReferenceRepository for one name-keyed
// table (industries or keywords).
type ReferenceStore struct {
	pool  Pool
	table string
}

// NewReferenceStoreWithPool constructs a reference store over an existing
// pool. The table name must be one of the two reference tables.
func NewReferenceStoreWithPool(pool Pool, table string) (*ReferenceStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if table != "industries" && table != "keywords" {
		return nil, fmt.Errorf("unknown reference table %q", table)
	}
	return &ReferenceStore{pool: pool, table: table}, nil
}

// EnsureAll inserts the names that are absent, leaving existing rows alone.
func (s *ReferenceStore) EnsureAll(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `INSERT INTO %s (name, created_at) VALUES `, s.table)
	args := make([]any, 0, len(names))
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, NOW())", i+1)
		args = append(args, name)
	}
	sb.WriteString(" ON CONFLICT (name) DO NOTHING")

	if _, err := s.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("ensure %s: %w", s.table, err)
	}
	return nil
}

// List returns every record ordered by name.
func (s *ReferenceStore) List(ctx context.Context) ([]store.NamedRecord, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, name, created_at FROM %s ORDER BY name`, s.table))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()

	var recs []store.NamedRecord
	for rows.Next() {
		var rec store.NamedRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.table, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", s.table, err)
	}
	return recs, nil
}
