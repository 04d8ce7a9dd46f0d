// Package instantly is a minimal client for the instantly.ai leads API.
//
// The only operation the service needs is listing the leads of a campaign,
// which the upstream exposes as a cursor-paginated POST endpoint. The
// client issues exactly one network call per page; the PageIterator turns
// the cursor protocol into a lazy, non-restartable page sequence.
package instantly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.instantly.ai"

	// DefaultFilter restricts listings to leads that opened but never
	// replied, which is the population the enrichment pipeline targets.
	DefaultFilter = "FILTER_VAL_OPENED_NO_REPLY"

	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 30 * time.Second

	listLeadsPath = "/api/v2/leads/list"
)

// Config configures the API client.
type Config struct {
	// BaseURL overrides the API endpoint. Used by tests and proxies.
	BaseURL string

	// APIKey is the bearer token for the Authorization header.
	APIKey string

	// Filter is the upstream lead filter. Empty means DefaultFilter.
	Filter string

	// Timeout bounds a single page request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Validate checks that the config can produce a working client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("instantly: api key is required")
	}
	return nil
}

// Client calls the instantly.ai leads API.
type Client struct {
	baseURL string
	apiKey  string
	filter  string
	hc      *http.Client
}

// New creates a client from the given configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	filter := cfg.Filter
	if filter == "" {
		filter = DefaultFilter
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		filter:  filter,
		hc:      &http.Client{Timeout: timeout},
	}, nil
}

// RawLead is one lead record as returned by the upstream API. Only the
// email field is consumed downstream; everything else is carried opaquely
// so the CSV export can preserve it.
type RawLead map[string]any

// Email returns the lead's email field, if present and a string.
func (l RawLead) Email() (string, bool) {
	v, ok := l["email"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Page is one page of a campaign's lead listing. An empty NextCursor
// means the listing is exhausted.
type Page struct {
	Items      []RawLead
	NextCursor string
}

type listLeadsRequest struct {
	Campaign      string `json:"campaign"`
	Filter        string `json:"filter"`
	StartingAfter string `json:"starting_after,omitempty"`
}

type listLeadsResponse struct {
	Items             []RawLead `json:"items"`
	NextStartingAfter string    `json:"next_starting_after"`
}

// ListLeads fetches one page of leads for a campaign. Pass the previous
// page's cursor to continue a listing, or "" for the first page.
func (c *Client) ListLeads(ctx context.Context, campaignID, cursor string) (*Page, error) {
	body, err := json.Marshal(listLeadsRequest{
		Campaign:      campaignID,
		Filter:        c.filter,
		StartingAfter: cursor,
	})
	if err != nil {
		return nil, c.wrapError(campaignID, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+listLeadsPath, bytes.NewReader(body))
	if err != nil {
		return nil, c.wrapError(campaignID, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, c.wrapError(campaignID, 0, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		// Read a bounded slice of the body for the error detail.
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, c.wrapError(campaignID, res.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(detail))))
	}

	var parsed listLeadsResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, c.wrapError(campaignID, res.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	return &Page{Items: parsed.Items, NextCursor: parsed.NextStartingAfter}, nil
}
