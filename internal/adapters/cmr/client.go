// Package cmr implements granule search against NASA's Common Metadata
// Repository using scroll pagination.
package cmr

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jobrunner/granula/internal/domain"
)

// Defaults for the granule search endpoint.
const (
	DefaultEndpoint = "https://cmr.earthdata.nasa.gov/search/granules.csv"
	DefaultPageSize = 2000
)

// Response headers used for pagination.
const (
	HeaderScrollID = "CMR-Scroll-Id"
	HeaderHits     = "CMR-Hits"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 << 10

// Config holds search client configuration.
type Config struct {
	Endpoint string // Granule CSV search URL
	PageSize int    // Rows per page
}

// Client searches CMR for granules.
type Client struct {
	client   *http.Client
	endpoint string
	pageSize int
	logger   *slog.Logger
}

// NewClient creates a search client on top of the given HTTP client.
func NewClient(client *http.Client, cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		client:   client,
		endpoint: cfg.Endpoint,
		pageSize: cfg.PageSize,
		logger:   logger,
	}
}

// page is one parsed response.
type page struct {
	scrollID string
	hits     int
	columns  []string
	rows     []domain.Granule
}

// Search fetches every granule matching params. The first request opens a
// scroll session; follow-up requests carry its id until all hits are read.
// Zero hits yields domain.ErrNoGranules.
func (c *Client) Search(ctx context.Context, params domain.SearchParams) (*domain.ResultSet, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := params.Query()
	query.Set("scroll", "true")
	query.Set("page_size", strconv.Itoa(c.pageSize))
	reqURL := c.endpoint + "?" + query.Encode()

	first, err := c.fetchPage(ctx, reqURL, "")
	if err != nil {
		return nil, err
	}
	if first.hits == 0 {
		return nil, domain.ErrNoGranules
	}

	rs := &domain.ResultSet{Columns: first.columns, Hits: first.hits}
	rs.Append(first.rows)
	c.logger.Debug("search page fetched", "page", rs.Pages, "rows", len(first.rows), "hits", rs.Hits)

	scrollID := first.scrollID
	for !rs.Complete() {
		if scrollID == "" {
			return nil, &domain.APIError{Body: "missing " + HeaderScrollID + " header with results pending"}
		}

		next, err := c.fetchPage(ctx, reqURL, scrollID)
		if err != nil {
			return nil, err
		}
		if len(next.rows) == 0 {
			return nil, fmt.Errorf("%w: got %d of %d", domain.ErrIncompleteResults, rs.Len(), rs.Hits)
		}

		rs.Append(next.rows)
		c.logger.Debug("search page fetched", "page", rs.Pages, "rows", len(next.rows), "total", rs.Len())

		if next.scrollID != "" {
			scrollID = next.scrollID
		}
	}

	return rs, nil
}

func (c *Client) fetchPage(ctx context.Context, reqURL, scrollID string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	if scrollID != "" {
		req.Header.Set(HeaderScrollID, scrollID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching granules: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	hits, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get(HeaderHits)))
	if err != nil || hits < 0 {
		return nil, &domain.APIError{Body: fmt.Sprintf("invalid %s header %q", HeaderHits, resp.Header.Get(HeaderHits))}
	}

	p := &page{scrollID: resp.Header.Get(HeaderScrollID), hits: hits}
	if hits == 0 {
		return p, nil
	}

	p.columns, p.rows, err = parseCSV(resp.Body)
	if err != nil {
		return nil, &domain.APIError{Body: "parsing csv: " + err.Error()}
	}
	return p, nil
}

// parseCSV reads a header row followed by granule records.
func parseCSV(r io.Reader) ([]string, []domain.Granule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.Granule
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, domain.NewGranule(header, record))
	}
	return header, rows, nil
}
