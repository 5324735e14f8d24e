package progress

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jobrunner/granula/internal/domain"
)

func TestBarLine(t *testing.T) {
	b := NewBar(Options{Output: &strings.Builder{}, Width: 60})
	b.total = 4
	b.done = 2

	line := b.line(65 * time.Second)
	if !strings.HasPrefix(line, "DL Progress:  50%|") {
		t.Errorf("line = %q", line)
	}
	if !strings.HasSuffix(line, "| 2/4 [01:05]") {
		t.Errorf("line = %q", line)
	}
	if len(line) != 60 {
		t.Errorf("line width = %d, want 60", len(line))
	}
}

func TestBarConcurrentAdvance(t *testing.T) {
	var out strings.Builder
	b := NewBar(Options{Output: &out})
	b.Start(50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := domain.StatusDownloaded
			if i%10 == 0 {
				status = domain.StatusFailed
			}
			b.Advance(domain.DownloadOutcome{Status: status, Bytes: 10})
		}(i)
	}
	wg.Wait()
	b.Finish()

	if b.done != 50 || b.failed != 5 || b.bytes != 450 {
		t.Errorf("done = %d, failed = %d, bytes = %d", b.done, b.failed, b.bytes)
	}
	if !strings.Contains(out.String(), "100%") || !strings.Contains(out.String(), "5 failed") {
		t.Errorf("final output missing totals: %q", out.String())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{61 * time.Minute, "1:01:00"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestWriteSummary(t *testing.T) {
	report := &domain.BatchReport{
		Outcomes: []domain.DownloadOutcome{
			{Status: domain.StatusDownloaded, Bytes: 3_000_000},
			{Status: domain.StatusSkipped},
		},
		Elapsed: 2 * time.Second,
	}

	var out strings.Builder
	WriteSummary(&out, report)

	for _, want := range []string{
		"total downloaded: 3.00 Mb",
		"avg download speed: 1.50 Mb/s",
		"1 downloaded, 1 skipped, 0 failed",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary %q missing %q", out.String(), want)
		}
	}
}
