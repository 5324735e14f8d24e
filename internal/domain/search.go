package domain

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BoundingBox is a geographic filter in decimal degrees.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// ParseBoundingBox parses "W,S,E,N".
func ParseBoundingBox(s string) (*BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: expected W,S,E,N, got %q", ErrInvalidBoundingBox, s)
	}

	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidBoundingBox, p)
		}
		vals[i] = v
	}

	bb := &BoundingBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if err := bb.Validate(); err != nil {
		return nil, err
	}
	return bb, nil
}

// Validate checks the box lies within valid longitude/latitude ranges.
func (b *BoundingBox) Validate() error {
	if b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidBoundingBox)
	}
	if b.South < -90 || b.South > 90 || b.North < -90 || b.North > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidBoundingBox)
	}
	if b.South > b.North {
		return fmt.Errorf("%w: south is greater than north", ErrInvalidBoundingBox)
	}
	return nil
}

// String renders the box the way CMR expects it.
func (b *BoundingBox) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(b.West) + "," + f(b.South) + "," + f(b.East) + "," + f(b.North)
}

// SearchParams holds the granule filters supplied by the caller.
type SearchParams struct {
	ShortName     string            // Dataset ShortName (e.g. ECCO_L4_SSH_05DEG_MONTHLY_V4R4)
	Provider      string            // CMR provider (e.g. POCLOUD)
	TemporalStart time.Time         // Inclusive start; zero = open
	TemporalEnd   time.Time         // Inclusive end; zero = open
	BoundingBox   *BoundingBox      // Spatial filter (optional)
	Extra         map[string]string // Additional CMR parameters
}

// Temporal renders the temporal range, or "" if both ends are open.
func (p SearchParams) Temporal() string {
	if p.TemporalStart.IsZero() && p.TemporalEnd.IsZero() {
		return ""
	}
	var start, end string
	if !p.TemporalStart.IsZero() {
		start = p.TemporalStart.UTC().Format(time.RFC3339)
	}
	if !p.TemporalEnd.IsZero() {
		end = p.TemporalEnd.UTC().Format(time.RFC3339)
	}
	return start + "," + end
}

// Query returns the filters as URL query values. A typed field overrides
// the same key in Extra only when it is set. Filters with an empty value
// are dropped. The returned values are a fresh copy.
func (p SearchParams) Query() url.Values {
	all := map[string]string{}
	maps.Copy(all, p.Extra)

	typed := map[string]string{
		"short_name": p.ShortName,
		"provider":   p.Provider,
		"temporal":   p.Temporal(),
	}
	if p.BoundingBox != nil {
		typed["bounding_box"] = p.BoundingBox.String()
	}
	for k, v := range typed {
		if v != "" {
			all[k] = v
		}
	}

	q := url.Values{}
	for k, v := range all {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	return q
}

// Validate checks the parameters before a search is issued.
func (p SearchParams) Validate() error {
	if p.ShortName == "" && p.Extra["concept_id"] == "" && p.Extra["collection_concept_id"] == "" {
		return &ValidationError{
			Field:   "short_name",
			Message: "a dataset short name or collection concept id is required",
		}
	}
	if !p.TemporalStart.IsZero() && !p.TemporalEnd.IsZero() && p.TemporalEnd.Before(p.TemporalStart) {
		return &ValidationError{
			Field:   "temporal",
			Value:   p.Temporal(),
			Message: "end is before start",
		}
	}
	if p.BoundingBox != nil {
		return p.BoundingBox.Validate()
	}
	return nil
}

// Column names in the CMR granule CSV response.
const (
	ColumnGranuleUR        = "Granule UR"
	ColumnStartTime        = "Start Time"
	ColumnEndTime          = "End Time"
	ColumnOnlineAccessURLs = "Online Access URLs"
	ColumnSize             = "Size"
)

// Granule is one row of granule metadata.
type Granule struct {
	Fields           map[string]string // All columns keyed by header name
	GranuleUR        string
	StartTime        string
	EndTime          string
	OnlineAccessURLs []string
	Size             string
}

// NewGranule builds a granule from a header and a CSV record.
func NewGranule(columns, record []string) Granule {
	g := Granule{Fields: make(map[string]string, len(columns))}
	for i, col := range columns {
		if i < len(record) {
			g.Fields[col] = record[i]
		}
	}

	g.GranuleUR = g.Fields[ColumnGranuleUR]
	g.StartTime = g.Fields[ColumnStartTime]
	g.EndTime = g.Fields[ColumnEndTime]
	g.Size = g.Fields[ColumnSize]
	g.OnlineAccessURLs = splitURLs(g.Fields[ColumnOnlineAccessURLs])
	return g
}

// HTTPURLs returns the granule's http(s) access URLs.
func (g Granule) HTTPURLs() []string {
	var out []string
	for _, u := range g.OnlineAccessURLs {
		lower := strings.ToLower(u)
		if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
			out = append(out, u)
		}
	}
	return out
}

func splitURLs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ResultSet is the ordered table of granules accumulated across pages.
type ResultSet struct {
	Columns  []string
	Granules []Granule
	Hits     int // Total hits reported by the API
	Pages    int // Number of pages fetched
}

// Len returns the number of accumulated rows.
func (r *ResultSet) Len() int {
	return len(r.Granules)
}

// Complete reports whether every hit has been accumulated.
func (r *ResultSet) Complete() bool {
	return r.Hits > 0 && len(r.Granules) >= r.Hits
}

// Append adds a page of rows, preserving order.
func (r *ResultSet) Append(granules []Granule) {
	r.Granules = append(r.Granules, granules...)
	r.Pages++
}

// DownloadURLs returns the http(s) URLs of all granules in row order.
func (r *ResultSet) DownloadURLs() []string {
	var urls []string
	for _, g := range r.Granules {
		urls = append(urls, g.HTTPURLs()...)
	}
	return urls
}
