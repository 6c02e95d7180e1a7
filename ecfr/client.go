// CLAUDE:SUMMARY HTTP client for the eCFR versioner, search, and admin APIs with capped-body error reporting.
// Package ecfr is a read-only client for the public eCFR API.
//
// All endpoints are unauthenticated GETs. Non-2xx responses surface as
// *APIError carrying the status line and a truncated body excerpt; there
// is no retry logic, a failed request fails the calling operation.
package ecfr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public eCFR API root.
const DefaultBaseURL = "https://www.ecfr.gov"

// Config configures a Client.
type Config struct {
	// BaseURL of the eCFR API. Default: DefaultBaseURL.
	BaseURL string `yaml:"base_url"`
	// Timeout is the HTTP timeout. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBytes caps response body size. Default: 50MB (structure
	// documents for large titles run tens of megabytes).
	MaxBytes int64 `yaml:"max_bytes"`
	// UserAgent sent with requests.
	UserAgent string `yaml:"user_agent"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 50 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "regveille/1.0"
	}
}

// Client calls the eCFR API.
type Client struct {
	http   *http.Client
	config Config
}

// New creates a Client.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Structure fetches the hierarchy document for a title at a date. An empty
// part fetches the whole title; a non-empty part scopes the document.
func (c *Client) Structure(ctx context.Context, date string, title int, part string) (*StructureNode, error) {
	q := url.Values{}
	if part != "" {
		q.Set("part", part)
	}
	body, _, err := c.get(ctx, fmt.Sprintf("/api/versioner/v1/structure/%s/title-%d.json", date, title), q)
	if err != nil {
		return nil, err
	}
	var root StructureNode
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("ecfr: decode structure: %w", err)
	}
	return &root, nil
}

// Titles fetches the full titles listing.
func (c *Client) Titles(ctx context.Context) ([]TitleMeta, error) {
	body, _, err := c.get(ctx, "/api/versioner/v1/titles.json", nil)
	if err != nil {
		return nil, err
	}
	var resp titlesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ecfr: decode titles: %w", err)
	}
	return resp.Titles, nil
}

// FindTitle scans the titles listing for the requested title number.
// Returns ErrTitleNotFound if absent.
func (c *Client) FindTitle(ctx context.Context, title int) (*TitleMeta, error) {
	titles, err := c.Titles(ctx)
	if err != nil {
		return nil, err
	}
	want := strconv.Itoa(title)
	for i := range titles {
		if strconv.Itoa(titles[i].Number) == want {
			return &titles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrTitleNotFound, title)
}

// Search queries the search results endpoint and relays the raw payload.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (json.RawMessage, error) {
	body, _, err := c.get(ctx, "/api/search/v1/results.json", searchQuery(opts))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// SearchSummary queries the aggregate search summary endpoint.
func (c *Client) SearchSummary(ctx context.Context, opts SearchOptions) (json.RawMessage, error) {
	body, _, err := c.get(ctx, "/api/search/v1/summary.json", searchQuery(opts))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Agencies fetches the agencies reference listing.
func (c *Client) Agencies(ctx context.Context) (json.RawMessage, error) {
	body, _, err := c.get(ctx, "/api/admin/v1/agencies.json", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Corrections fetches published corrections, optionally filtered by title,
// effective date, or correction date.
func (c *Client) Corrections(ctx context.Context, title, date, errorCorrectedDate string) (json.RawMessage, error) {
	q := url.Values{}
	if title != "" {
		q.Set("title", title)
	}
	if date != "" {
		q.Set("date", date)
	}
	if errorCorrectedDate != "" {
		q.Set("error_corrected_date", errorCorrectedDate)
	}
	body, _, err := c.get(ctx, "/api/admin/v1/corrections.json", q)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// FullXML fetches the full regulation XML for a title at a date, optionally
// scoped to a part and section.
func (c *Client) FullXML(ctx context.Context, date string, title int, part, section string) (string, error) {
	q := url.Values{}
	if part != "" {
		q.Set("part", part)
	}
	if section != "" {
		q.Set("section", section)
	}
	body, _, err := c.get(ctx, fmt.Sprintf("/api/versioner/v1/full/%s/title-%d.xml", date, title), q)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Versions fetches the amendment history for a title, optionally scoped to
// a part or filtered by issue date range.
func (c *Client) Versions(ctx context.Context, title int, part, issueDateStart, issueDateEnd string) (json.RawMessage, error) {
	q := url.Values{}
	if part != "" {
		q.Set("part", part)
	}
	if issueDateStart != "" {
		q.Set("issue_date[gte]", issueDateStart)
	}
	if issueDateEnd != "" {
		q.Set("issue_date[lte]", issueDateEnd)
	}
	body, _, err := c.get(ctx, fmt.Sprintf("/api/versioner/v1/versions/title-%d.json", title), q)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Ancestry fetches the ancestor chain of a node at a date.
func (c *Client) Ancestry(ctx context.Context, date string, title int, part, section string) (json.RawMessage, error) {
	q := url.Values{}
	if part != "" {
		q.Set("part", part)
	}
	if section != "" {
		q.Set("section", section)
	}
	body, _, err := c.get(ctx, fmt.Sprintf("/api/versioner/v1/ancestry/%s/title-%d.json", date, title), q)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Content fetches the text of one node by its structure index. The
// endpoint answers JSON or plain text depending on the node; the content
// type is returned alongside the body so callers can relay either.
func (c *Client) Content(ctx context.Context, date, structureIndex string) ([]byte, string, error) {
	return c.get(ctx, fmt.Sprintf("/api/versioner/v1/content/%s/%s", date, url.PathEscape(structureIndex)), nil)
}

// get issues one GET and returns body bytes plus the response content type.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, string, error) {
	u := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("ecfr: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json, application/xml, text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("ecfr: http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("ecfr: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        u,
			Body:       excerpt(body),
		}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func searchQuery(opts SearchOptions) url.Values {
	q := url.Values{}
	if opts.Query != "" {
		q.Set("query", opts.Query)
	}
	if opts.Date != "" {
		q.Set("date", opts.Date)
	}
	if opts.LastModifiedAfter != "" {
		q.Set("last_modified_after", opts.LastModifiedAfter)
	}
	if opts.LastModifiedBefore != "" {
		q.Set("last_modified_before", opts.LastModifiedBefore)
	}
	if opts.Order != "" {
		q.Set("order", opts.Order)
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	return q
}
