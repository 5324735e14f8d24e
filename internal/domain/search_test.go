package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseBoundingBox(t *testing.T) {
	tests := []struct {
		input   string
		want    *BoundingBox
		wantErr bool
	}{
		{"-180,-90,180,90", &BoundingBox{-180, -90, 180, 90}, false},
		{" 10.5, 20 ,30,40", &BoundingBox{10.5, 20, 30, 40}, false},
		{"1,2,3", nil, true},
		{"a,b,c,d", nil, true},
		{"-181,0,0,0", nil, true},
		{"0,10,10,5", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoundingBox(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBoundingBox(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBoundingBox) {
					t.Errorf("error should wrap ErrInvalidBoundingBox, got %v", err)
				}
				return
			}
			if *got != *tt.want {
				t.Errorf("ParseBoundingBox(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBoundingBoxString(t *testing.T) {
	bb := BoundingBox{West: -10.25, South: 0, East: 20, North: 45.5}
	if got := bb.String(); got != "-10.25,0,20,45.5" {
		t.Errorf("String() = %q", got)
	}
}

func TestSearchParamsQuery(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2015, 12, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name   string
		params SearchParams
		want   map[string]string
	}{
		{
			name:   "short name only",
			params: SearchParams{ShortName: "ECCO_L4_SSH_05DEG_MONTHLY_V4R4"},
			want:   map[string]string{"short_name": "ECCO_L4_SSH_05DEG_MONTHLY_V4R4"},
		},
		{
			name: "full filter",
			params: SearchParams{
				ShortName:     "ECCO",
				Provider:      "POCLOUD",
				TemporalStart: start,
				TemporalEnd:   end,
				BoundingBox:   &BoundingBox{-10, -5, 10, 5},
			},
			want: map[string]string{
				"short_name":   "ECCO",
				"provider":     "POCLOUD",
				"temporal":     "2015-01-01T00:00:00Z,2015-12-31T23:59:59Z",
				"bounding_box": "-10,-5,10,5",
			},
		},
		{
			name:   "open end",
			params: SearchParams{ShortName: "X", TemporalStart: start},
			want:   map[string]string{"short_name": "X", "temporal": "2015-01-01T00:00:00Z,"},
		},
		{
			name: "extra and empty values",
			params: SearchParams{
				ShortName: "X",
				Extra:     map[string]string{"version": "4", "cloud_hosted": ""},
			},
			want: map[string]string{"short_name": "X", "version": "4"},
		},
		{
			name: "extra fills unset typed fields",
			params: SearchParams{
				ShortName: "ECCO",
				Extra: map[string]string{
					"temporal":       "2000-01-01T00:00:00Z,2000-12-31T00:00:00Z",
					"provider":       "OTHER",
					"day_night_flag": "day",
				},
			},
			want: map[string]string{
				"short_name":     "ECCO",
				"temporal":       "2000-01-01T00:00:00Z,2000-12-31T00:00:00Z",
				"provider":       "OTHER",
				"day_night_flag": "day",
			},
		},
		{
			name: "typed fields win when set",
			params: SearchParams{
				ShortName:     "ECCO",
				Provider:      "POCLOUD",
				TemporalStart: start,
				Extra:         map[string]string{"provider": "OTHER", "temporal": "1999-01-01T00:00:00Z,"},
			},
			want: map[string]string{
				"short_name": "ECCO",
				"provider":   "POCLOUD",
				"temporal":   "2015-01-01T00:00:00Z,",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.params.Query()
			got := map[string]string{}
			for k := range q {
				got[k] = q.Get(k)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Query() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchParamsQueryIsCopy(t *testing.T) {
	p := SearchParams{ShortName: "X", Extra: map[string]string{"version": "4"}}

	q := p.Query()
	q.Set("version", "5")
	q.Set("page_size", "10")

	if p.Extra["version"] != "4" {
		t.Error("mutating Query() result must not change params")
	}
	if p.Query().Get("page_size") != "" {
		t.Error("Query() must return a fresh copy")
	}
}

func TestSearchParamsValidate(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		params  SearchParams
		wantErr bool
	}{
		{"short name", SearchParams{ShortName: "X"}, false},
		{"concept id", SearchParams{Extra: map[string]string{"concept_id": "C1-POCLOUD"}}, false},
		{"no dataset", SearchParams{Provider: "POCLOUD"}, true},
		{"end before start", SearchParams{ShortName: "X", TemporalStart: start, TemporalEnd: start.Add(-time.Hour)}, true},
		{"bad bbox", SearchParams{ShortName: "X", BoundingBox: &BoundingBox{0, 50, 10, 10}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Validate() error should wrap ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNewGranule(t *testing.T) {
	columns := []string{ColumnGranuleUR, ColumnStartTime, ColumnEndTime, ColumnOnlineAccessURLs, ColumnSize}
	record := []string{
		"SSH_1992-01",
		"1992-01-01T00:00:00.000Z",
		"1992-02-01T00:00:00.000Z",
		"https://archive.example/SSH_1992-01.nc, s3://bucket/SSH_1992-01.nc",
		"12.5",
	}

	g := NewGranule(columns, record)

	if g.GranuleUR != "SSH_1992-01" {
		t.Errorf("GranuleUR = %q", g.GranuleUR)
	}
	if len(g.OnlineAccessURLs) != 2 {
		t.Fatalf("OnlineAccessURLs = %v, want 2 entries", g.OnlineAccessURLs)
	}
	if got := g.HTTPURLs(); len(got) != 1 || got[0] != "https://archive.example/SSH_1992-01.nc" {
		t.Errorf("HTTPURLs() = %v", got)
	}
	if g.Fields[ColumnSize] != "12.5" {
		t.Errorf("Fields[Size] = %q", g.Fields[ColumnSize])
	}
}

func TestNewGranuleShortRecord(t *testing.T) {
	g := NewGranule([]string{ColumnGranuleUR, ColumnOnlineAccessURLs}, []string{"only-ur"})

	if g.GranuleUR != "only-ur" {
		t.Errorf("GranuleUR = %q", g.GranuleUR)
	}
	if len(g.OnlineAccessURLs) != 0 {
		t.Errorf("OnlineAccessURLs = %v, want none", g.OnlineAccessURLs)
	}
}

func TestResultSet(t *testing.T) {
	rs := &ResultSet{Hits: 3}
	if rs.Complete() {
		t.Error("empty result set should not be complete")
	}

	rs.Append([]Granule{
		{GranuleUR: "a", OnlineAccessURLs: []string{"https://h/a.nc"}},
		{GranuleUR: "b", OnlineAccessURLs: []string{"s3://b/b.nc"}},
	})
	rs.Append([]Granule{
		{GranuleUR: "c", OnlineAccessURLs: []string{"http://h/c.nc", "https://h/c.xml"}},
	})

	if rs.Len() != 3 || rs.Pages != 2 {
		t.Errorf("Len() = %d, Pages = %d, want 3 and 2", rs.Len(), rs.Pages)
	}
	if !rs.Complete() {
		t.Error("result set should be complete")
	}

	want := []string{"https://h/a.nc", "http://h/c.nc", "https://h/c.xml"}
	if got := rs.DownloadURLs(); !reflect.DeepEqual(got, want) {
		t.Errorf("DownloadURLs() = %v, want %v", got, want)
	}
}
