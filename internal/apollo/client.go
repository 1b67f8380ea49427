package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/orgharvest/orgharvest/internal/metrics"
)

// DefaultBaseURL is the vendor API root.
const DefaultBaseURL = "https://app.apollo.io/api/v1"

// PerPage is the vendor's search page size.
const PerPage = 25

const (
	searchEndpoint  = "/mixed_companies/search"
	detailsEndpoint = "/organizations/load_snippets"
)

// ClientConfig controls vendor client behavior.
type ClientConfig struct {
	BaseURL string
	// Timeout bounds a single request.
	Timeout time.Duration
	// MaxRetries bounds transport-level retries per request.
	MaxRetries int
	// RequestsPerSecond caps the outbound request rate as a safety net on
	// top of the injected pacing. <= 0 means uncapped.
	RequestsPerSecond float64
}

// Client calls the vendor search and detail endpoints with the captured
// browser credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// NewClient constructs a Client.
func NewClient(cfg ClientConfig, creds Credentials, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// searchRequest mirrors the payload the vendor's companies index page sends.
type searchRequest struct {
	Page                          int      `json:"page"`
	SortAscending                 bool     `json:"sort_ascending"`
	SortByField                   string   `json:"sort_by_field"`
	OrganizationNumEmployeesRange []string `json:"organization_num_employees_ranges"`
	OrganizationLocations         []string `json:"organization_locations"`
	OrganizationIndustryTagIDs    []string `json:"organization_industry_tag_ids"`
	DisplayMode                   string   `json:"display_mode"`
	PerPage                       int      `json:"per_page"`
	OpenFactorNames               []string `json:"open_factor_names"`
	NumFetchResult                int      `json:"num_fetch_result"`
	Context                       string   `json:"context"`
	ShowSuggestions               bool     `json:"show_suggestions"`
	FinderVersion                 int      `json:"finder_version"`
	SearchSessionID               string   `json:"search_session_id"`
	UIFinderRandomSeed            string   `json:"ui_finder_random_seed"`
	CacheKey                      int64    `json:"cacheKey"`
}

// SearchPage holds one page of search results plus the raw payload for
// archiving.
type SearchPage struct {
	Organizations []SearchOrganization
	HasNextPage   *bool
	Raw           []byte
}

// SearchOrganization is the per-record shape the search endpoint returns.
type SearchOrganization struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LinkedinURL    string `json:"linkedin_url"`
	WebsiteURL     string `json:"website_url"`
	FacebookURL    string `json:"facebook_url"`
	SanitizedPhone string `json:"sanitized_phone"`
	PrimaryPhone   struct {
		SanitizedNumber string `json:"sanitized_number"`
	} `json:"primary_phone"`
}

// OrganizationDetail is the per-record shape the detail endpoint returns.
type OrganizationDetail struct {
	ID                    string   `json:"id"`
	EstimatedNumEmployees int      `json:"estimated_num_employees"`
	Industries            []string `json:"industries"`
	Keywords              []string `json:"keywords"`
	RawAddress            string   `json:"raw_address"`
}

// SearchQuery identifies one combination's search parameters.
type SearchQuery struct {
	Location        string
	EmployeeRanges  []string
	IndustryID      string
	SearchSessionID string
	RandomSeed      string
}

// NewSessionID returns a fresh per-run search session identifier in the
// shape the vendor's UI generates.
func NewSessionID() string {
	return uuid.NewString()
}

// NewRandomSeed returns a fresh per-run finder seed.
func NewRandomSeed() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// Search fetches one page of results.
func (c *Client) Search(ctx context.Context, q SearchQuery, page int) (SearchPage, error) {
	payload := searchRequest{
		Page:                          page,
		SortByField:                   "[none]",
		OrganizationNumEmployeesRange: q.EmployeeRanges,
		OrganizationLocations:         []string{q.Location},
		OrganizationIndustryTagIDs:    []string{q.IndustryID},
		DisplayMode:                   "explorer_mode",
		PerPage:                       PerPage,
		OpenFactorNames:               []string{},
		NumFetchResult:                PerPage,
		Context:                       "companies-index-page",
		FinderVersion:                 2,
		SearchSessionID:               q.SearchSessionID,
		UIFinderRandomSeed:            q.RandomSeed,
		CacheKey:                      time.Now().UnixMilli(),
	}
	body, err := c.post(ctx, searchEndpoint, payload)
	if err != nil {
		return SearchPage{}, err
	}

	var decoded struct {
		Organizations []SearchOrganization `json:"organizations"`
		Pagination    struct {
			HasNextPage *bool `json:"has_next_page"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return SearchPage{}, fmt.Errorf("decode search response: %w", err)
	}
	return SearchPage{
		Organizations: decoded.Organizations,
		HasNextPage:   decoded.Pagination.HasNextPage,
		Raw:           body,
	}, nil
}

// LoadDetails fetches the detail records for a page's worth of ids.
func (c *Client) LoadDetails(ctx context.Context, ids []string) ([]OrganizationDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	payload := map[string]any{
		"ids":      ids,
		"cacheKey": time.Now().UnixMilli(),
	}
	body, err := c.post(ctx, detailsEndpoint, payload)
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Organizations []OrganizationDetail `json:"organizations"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode details response: %w", err)
	}
	return decoded.Organizations, nil
}

// post sends one JSON request with the captured credentials, retrying
// transport failures with exponential backoff. A non-2xx status is returned
// as an error without retry: the vendor treats most of those as a signal to
// back off entirely.
func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range c.creds.Headers {
			req.Header.Set(k, v)
		}
		for name, value := range c.creds.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("vendor request failed, will retry",
				zap.String("endpoint", endpoint), zap.Error(err))
			return fmt.Errorf("vendor request: %w", err)
		}
		defer resp.Body.Close()
		metrics.ObserveVendorRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read vendor response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("vendor returned status %d", resp.StatusCode))
		}
		body = payload
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}
