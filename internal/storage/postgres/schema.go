package postgres

import (
	"context"
	"fmt"
)

// schemaStatements create the tables and indexes the harvester relies on.
// The unique index on (location, industry_name) is what makes generation's
// conditional inserts safe; it is a constraint, not an application check.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS combinations (
		id BIGSERIAL PRIMARY KEY,
		location TEXT NOT NULL,
		employee_ranges TEXT NOT NULL,
		industry_id TEXT NOT NULL,
		industry_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'in_progress', 'completed', 'failed')),
		results_count INTEGER,
		leased_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (location, industry_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_combinations_status ON combinations (status)`,
	`CREATE TABLE IF NOT EXISTS generation_runs (
		fingerprint TEXT PRIMARY KEY,
		total BIGINT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id BIGSERIAL PRIMARY KEY,
		apollo_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		linkedin_url TEXT NOT NULL DEFAULT '',
		website_url TEXT NOT NULL DEFAULT '',
		facebook_url TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		number_of_employees INTEGER NOT NULL DEFAULT 0,
		industries JSONB NOT NULL DEFAULT '[]',
		keywords JSONB NOT NULL DEFAULT '[]',
		address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_organizations_name ON organizations (name)`,
	`CREATE TABLE IF NOT EXISTS industries (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates any missing tables and indexes. Statements are
// individually idempotent, so re-running is safe.
func EnsureSchema(ctx context.Context, pool Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
