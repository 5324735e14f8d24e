package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jobrunner/granula/internal/config"
	"github.com/jobrunner/granula/internal/domain"
)

func testResultSet() *domain.ResultSet {
	columns := []string{"Granule UR", "Start Time", "End Time", "Online Access URLs", "Size"}
	rs := &domain.ResultSet{Columns: columns, Hits: 2}
	rs.Append([]domain.Granule{
		domain.NewGranule(columns, []string{"SSH_1992_01", "1992-01-01", "1992-01-31", "https://data.example/SSH_1992_01.nc,s3://bucket/SSH_1992_01.nc", "1.5"}),
		domain.NewGranule(columns, []string{"SSH_1992_02", "1992-02-01", "1992-02-29", "https://data.example/SSH_1992_02.nc", "1.4"}),
	})
	return rs
}

func TestWriteGranules(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{formatTable, func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "GRANULE") {
				t.Errorf("table missing header:\n%s", out)
			}
			if strings.Contains(out, "s3://") {
				t.Errorf("table lists s3 links:\n%s", out)
			}
			if !strings.Contains(out, "2 granules") {
				t.Errorf("table missing count:\n%s", out)
			}
		}},
		{formatCSV, func(t *testing.T, out string) {
			lines := strings.Split(strings.TrimSpace(out), "\n")
			if len(lines) != 3 {
				t.Fatalf("csv lines = %d, want 3", len(lines))
			}
			if !strings.Contains(lines[1], `"https://data.example/SSH_1992_01.nc,s3://bucket/SSH_1992_01.nc"`) {
				t.Errorf("csv row not preserved verbatim: %s", lines[1])
			}
		}},
		{formatJSON, func(t *testing.T, out string) {
			var v resultView
			if err := json.Unmarshal([]byte(out), &v); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if v.Hits != 2 || len(v.Granules) != 2 {
				t.Errorf("json = %+v", v)
			}
			if got := v.Granules[0].URLs; len(got) != 1 {
				t.Errorf("urls = %v, want only the https link", got)
			}
		}},
		{formatYAML, func(t *testing.T, out string) {
			var v resultView
			if err := yaml.Unmarshal([]byte(out), &v); err != nil {
				t.Fatalf("invalid yaml: %v", err)
			}
			if v.Granules[1].GranuleUR != "SSH_1992_02" {
				t.Errorf("yaml = %+v", v)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeGranules(&buf, tt.format, testResultSet()); err != nil {
				t.Fatalf("writeGranules() error = %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}

func TestWriteHistory(t *testing.T) {
	entries := []domain.LedgerEntry{{
		ID:           1,
		URL:          "https://data.example/a.nc",
		Path:         "/data/a.nc",
		Bytes:        42,
		DownloadedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	if err := writeHistory(&buf, formatCSV, entries); err != nil {
		t.Fatalf("writeHistory() error = %v", err)
	}
	if !strings.Contains(buf.String(), "2024-05-01T12:00:00Z,42,/data/a.nc,https://data.example/a.nc") {
		t.Errorf("csv = %q", buf.String())
	}

	buf.Reset()
	if err := writeHistory(&buf, formatJSON, nil); err != nil {
		t.Fatalf("writeHistory() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty json = %q, want []", buf.String())
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in       string
		endOfDay bool
		want     time.Time
		wantErr  bool
	}{
		{"1992-01-01", false, time.Date(1992, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"1992-01-31", true, time.Date(1992, 1, 31, 23, 59, 59, 0, time.UTC), false},
		{"1992-01-01T06:00:00Z", true, time.Date(1992, 1, 1, 6, 0, 0, 0, time.UTC), false},
		{"January", false, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTime(tt.in, tt.endOfDay)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchParams(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSearchFlags(fs)
	err := fs.Parse([]string{
		"--short-name", "ECCO_L4_SSH_05DEG_MONTHLY_V4R4",
		"--start", "1992-01-01",
		"--end", "1992-12-31",
		"--bbox", "-10,-5,10,5",
		"--param", "day_night_flag=day",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{CMR: config.CMRConfig{Provider: "POCLOUD"}}
	params, err := searchParams(fs, cfg)
	if err != nil {
		t.Fatalf("searchParams() error = %v", err)
	}

	q := params.Query()
	if q.Get("provider") != "POCLOUD" {
		t.Errorf("provider = %q", q.Get("provider"))
	}
	if q.Get("temporal") != "1992-01-01T00:00:00Z,1992-12-31T23:59:59Z" {
		t.Errorf("temporal = %q", q.Get("temporal"))
	}
	if q.Get("bounding_box") != "-10,-5,10,5" {
		t.Errorf("bounding_box = %q", q.Get("bounding_box"))
	}
	if q.Get("day_night_flag") != "day" {
		t.Errorf("day_night_flag = %q", q.Get("day_night_flag"))
	}
}

func TestSearchParamsRequiresDataset(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSearchFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}

	if _, err := searchParams(fs, &config.Config{}); err == nil {
		t.Error("searchParams() expected error without short name")
	}
}

func TestReadURLList(t *testing.T) {
	in := strings.NewReader("# granules\nhttps://a.example/1.nc\n\n  https://a.example/2.nc  \n")

	urls, err := readURLList("-", in)
	if err != nil {
		t.Fatalf("readURLList() error = %v", err)
	}
	if len(urls) != 2 || urls[1] != "https://a.example/2.nc" {
		t.Errorf("urls = %v", urls)
	}
}
