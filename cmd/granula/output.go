package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jobrunner/granula/internal/domain"
)

// Output formats.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validFormat(f string) bool {
	switch f {
	case formatTable, formatCSV, formatJSON, formatYAML:
		return true
	}
	return false
}

// granuleView is the structured rendering of one granule.
type granuleView struct {
	GranuleUR string   `json:"granule_ur" yaml:"granule_ur"`
	StartTime string   `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   string   `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Size      string   `json:"size,omitempty" yaml:"size,omitempty"`
	URLs      []string `json:"urls" yaml:"urls"`
}

type resultView struct {
	Hits     int           `json:"hits" yaml:"hits"`
	Granules []granuleView `json:"granules" yaml:"granules"`
}

func newResultView(rs *domain.ResultSet) resultView {
	v := resultView{Hits: rs.Hits, Granules: make([]granuleView, 0, rs.Len())}
	for _, g := range rs.Granules {
		v.Granules = append(v.Granules, granuleView{
			GranuleUR: g.GranuleUR,
			StartTime: g.StartTime,
			EndTime:   g.EndTime,
			Size:      g.Size,
			URLs:      g.HTTPURLs(),
		})
	}
	return v
}

// writeGranules renders a result set. csv reproduces the columns returned
// by the search API.
func writeGranules(w io.Writer, format string, rs *domain.ResultSet) error {
	switch format {
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(rs.Columns); err != nil {
			return err
		}
		for _, g := range rs.Granules {
			row := make([]string, len(rs.Columns))
			for i, col := range rs.Columns {
				row[i] = g.Fields[col]
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case formatJSON:
		return writeJSON(w, newResultView(rs))

	case formatYAML:
		return writeYAML(w, newResultView(rs))

	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "GRANULE\tSTART\tEND\tSIZE\tURL")
		for _, g := range rs.Granules {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				g.GranuleUR, g.StartTime, g.EndTime, g.Size, strings.Join(g.HTTPURLs(), " "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%d granules\n", rs.Len())
		return err
	}
}

// writeHistory renders ledger entries.
func writeHistory(w io.Writer, format string, entries []domain.LedgerEntry) error {
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	switch format {
	case formatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"downloaded_at", "bytes", "path", "url"})
		for _, e := range entries {
			_ = cw.Write([]string{
				e.DownloadedAt.UTC().Format(time.RFC3339),
				fmt.Sprint(e.Bytes),
				e.Path,
				e.URL,
			})
		}
		cw.Flush()
		return cw.Error()

	case formatJSON:
		return writeJSON(w, entries)

	case formatYAML:
		return writeYAML(w, entries)

	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DOWNLOADED\tBYTES\tPATH")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", e.DownloadedAt.Local().Format(time.DateTime), e.Bytes, e.Path)
		}
		return tw.Flush()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
