package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgharvest/orgharvest/internal/storage/postgres"
	"github.com/orgharvest/orgharvest/internal/store"
)

var orgColumns = []string{
	"id", "apollo_id", "name", "linkedin_url", "website_url", "facebook_url",
	"phone", "number_of_employees", "industries", "keywords", "address",
	"created_at", "updated_at",
}

func newMockedOrganizationStore(t *testing.T) (*postgres.OrganizationStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := postgres.NewOrganizationStoreWithPool(mock)
	require.NoError(t, err)
	return s, mock
}

func TestOrganizationStore_Upsert(t *testing.T) {
	s, mock := newMockedOrganizationStore(t)

	mock.ExpectExec("INSERT INTO organizations").
		WithArgs("apollo-1", "Acme Corp", "https://linkedin.com/company/acme",
			"https://acme.example", "", "+12125550100", 50,
			[]byte(`["Software"]`), []byte(`["saas","b2b"]`), "123 Main St").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Upsert(context.Background(), store.Organization{
		ApolloID:          "apollo-1",
		Name:              "Acme Corp",
		LinkedinURL:       "https://linkedin.com/company/acme",
		WebsiteURL:        "https://acme.example",
		Phone:             "+12125550100",
		NumberOfEmployees: 50,
		Industries:        []string{"Software"},
		Keywords:          []string{"saas", "b2b"},
		Address:           "123 Main St",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationStore_Upsert_NilListsBecomeEmptyArrays(t *testing.T) {
	s, mock := newMockedOrganizationStore(t)

	mock.ExpectExec("INSERT INTO organizations").
		WithArgs("apollo-2", "Bare Inc", "", "", "", "", 0,
			[]byte(`[]`), []byte(`[]`), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Upsert(context.Background(), store.Organization{ApolloID: "apollo-2", Name: "Bare Inc"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationStore_Get(t *testing.T) {
	s, mock := newMockedOrganizationStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(orgColumns).AddRow(
		int64(1), "apollo-1", "Acme Corp", "", "", "", "+12125550100", 50,
		[]byte(`["Software"]`), []byte(`["saas"]`), "123 Main St", now, now)
	mock.ExpectQuery("FROM organizations WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	org, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, []string{"Software"}, org.Industries)
	assert.Equal(t, []string{"saas"}, org.Keywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationStore_Get_NotFound(t *testing.T) {
	s, mock := newMockedOrganizationStore(t)

	mock.ExpectQuery("FROM organizations WHERE id").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOrganizationStore_GetByApolloID(t *testing.T) {
	s, mock := newMockedOrganizationStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(orgColumns).AddRow(
		int64(7), "apollo-7", "Globex", "", "", "", "", 10,
		[]byte(`[]`), []byte(`[]`), "", now, now)
	mock.ExpectQuery("FROM organizations WHERE apollo_id").
		WithArgs("apollo-7").
		WillReturnRows(rows)

	org, err := s.GetByApolloID(context.Background(), "apollo-7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), org.ID)
	assert.Empty(t, org.Industries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationStore_ListAndCount(t *testing.T) {
	s, mock := newMockedOrganizationStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(orgColumns).
		AddRow(int64(1), "a-1", "One", "", "", "", "", 1, []byte(`[]`), []byte(`[]`), "", now, now).
		AddRow(int64(2), "a-2", "Two", "", "", "", "", 2, []byte(`[]`), []byte(`[]`), "", now, now)
	mock.ExpectQuery("FROM organizations ORDER BY id LIMIT").
		WithArgs(25, 0).
		WillReturnRows(rows)

	orgs, err := s.List(context.Background(), 25, 0)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Two", orgs[1].Name)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM organizations`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceStore_EnsureAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := postgres.NewReferenceStoreWithPool(mock, "industries")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO industries").
		WithArgs("Software", "Healthcare").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	require.NoError(t, s.EnsureAll(context.Background(), []string{"Software", "Healthcare"}))
	require.NoError(t, s.EnsureAll(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := postgres.NewReferenceStoreWithPool(mock, "keywords")
	require.NoError(t, err)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "created_at"}).
		AddRow(int64(1), "b2b", now).
		AddRow(int64(2), "saas", now)
	mock.ExpectQuery("SELECT id, name, created_at FROM keywords").WillReturnRows(rows)

	recs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b2b", recs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceStore_RejectsUnknownTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	_, err = postgres.NewReferenceStoreWithPool(mock, "organizations; DROP TABLE")
	assert.Error(t, err)
}
