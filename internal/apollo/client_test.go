package apollo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/apollo"
)

func testCreds() apollo.Credentials {
	return apollo.Credentials{
		Cookies: map[string]string{"session": "abc123"},
		Headers: map[string]string{"X-Csrf-Token": "tok"},
	}
}

func TestClient_Search(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mixed_companies/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		cookie, err := r.Cookie("session")
		require.NoError(t, err)
		assert.Equal(t, "abc123", cookie.Value)
		assert.Equal(t, "tok", r.Header.Get("X-Csrf-Token"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"organizations": []map[string]any{
				{"id": "a-1", "name": "Acme Corp", "sanitized_phone": "+1"},
			},
			"pagination": map[string]any{"has_next_page": false},
		})
	}))
	defer server.Close()

	client := apollo.NewClient(apollo.ClientConfig{BaseURL: server.URL}, testCreds(), zap.NewNop())
	page, err := client.Search(context.Background(), apollo.SearchQuery{
		Location:        "New York, NY",
		EmployeeRanges:  []string{"1,10"},
		IndustryID:      "tag-tech",
		SearchSessionID: apollo.NewSessionID(),
		RandomSeed:      apollo.NewRandomSeed(),
	}, 2)
	require.NoError(t, err)

	require.Len(t, page.Organizations, 1)
	assert.Equal(t, "Acme Corp", page.Organizations[0].Name)
	require.NotNil(t, page.HasNextPage)
	assert.False(t, *page.HasNextPage)
	assert.NotEmpty(t, page.Raw)

	assert.Equal(t, float64(2), captured["page"])
	assert.Equal(t, float64(apollo.PerPage), captured["per_page"])
	assert.Equal(t, "explorer_mode", captured["display_mode"])
	assert.Equal(t, "companies-index-page", captured["context"])
	assert.Equal(t, []any{"New York, NY"}, captured["organization_locations"])
	assert.Equal(t, []any{"tag-tech"}, captured["organization_industry_tag_ids"])
	assert.Equal(t, []any{"1,10"}, captured["organization_num_employees_ranges"])
}

func TestClient_Search_Non200IsAnError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := apollo.NewClient(apollo.ClientConfig{BaseURL: server.URL, MaxRetries: 3}, testCreds(), zap.NewNop())
	_, err := client.Search(context.Background(), apollo.SearchQuery{}, 1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "403")
	assert.Equal(t, 1, calls, "a non-200 status must not be retried")
}

func TestClient_Search_MalformedBodyIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := apollo.NewClient(apollo.ClientConfig{BaseURL: server.URL}, testCreds(), zap.NewNop())
	_, err := client.Search(context.Background(), apollo.SearchQuery{}, 1)
	assert.ErrorContains(t, err, "decode search response")
}

func TestClient_LoadDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/organizations/load_snippets", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []any{"a-1", "a-2"}, payload["ids"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"organizations": []map[string]any{
				{"id": "a-1", "estimated_num_employees": 12, "industries": []string{"Software"}},
				{"id": "a-2", "raw_address": "5th Ave"},
			},
		})
	}))
	defer server.Close()

	client := apollo.NewClient(apollo.ClientConfig{BaseURL: server.URL}, testCreds(), zap.NewNop())
	details, err := client.LoadDetails(context.Background(), []string{"a-1", "a-2"})
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, 12, details[0].EstimatedNumEmployees)
	assert.Equal(t, "5th Ave", details[1].RawAddress)
}

func TestClient_LoadDetails_EmptyIDs(t *testing.T) {
	client := apollo.NewClient(apollo.ClientConfig{BaseURL: "http://unreachable.invalid"}, testCreds(), zap.NewNop())
	details, err := client.LoadDetails(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestNewRandomSeed_Shape(t *testing.T) {
	seed := apollo.NewRandomSeed()
	assert.Len(t, seed, 10)
	assert.NotEqual(t, seed, apollo.NewRandomSeed())
}
