// Package progress renders download progress and the batch summary.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jobrunner/granula/internal/domain"
)

// Options configures the progress bar.
type Options struct {
	// Output is where the bar is drawn.
	// Default: os.Stderr
	Output io.Writer

	// Description prefixes the bar.
	// Default: "DL Progress"
	Description string

	// Width is the total line width.
	// Default: 75
	Width int
}

// Bar is a single-line ASCII bar that advances once per finished file.
// It is safe for concurrent use.
type Bar struct {
	opts Options

	mu        sync.Mutex
	total     int
	done      int
	failed    int
	bytes     int64
	startTime time.Time
}

// NewBar creates a progress bar.
func NewBar(opts Options) *Bar {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Description == "" {
		opts.Description = "DL Progress"
	}
	if opts.Width <= 0 {
		opts.Width = 75
	}
	return &Bar{opts: opts}
}

// Start resets the bar for a batch of total files.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total = total
	b.done = 0
	b.failed = 0
	b.bytes = 0
	b.startTime = time.Now()
	b.render()
}

// Advance records one finished file.
func (b *Bar) Advance(outcome domain.DownloadOutcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done++
	if outcome.Status == domain.StatusFailed {
		b.failed++
	}
	if outcome.Status == domain.StatusDownloaded {
		b.bytes += outcome.Bytes
	}
	b.render()
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.render()
	fmt.Fprintln(b.opts.Output)
}

// render draws the bar. Caller holds b.mu.
func (b *Bar) render() {
	fmt.Fprint(b.opts.Output, "\r"+b.line(time.Since(b.startTime)))
}

// line formats "DL Progress:  40%|####      | 2/5 [00:03, 1 failed]".
func (b *Bar) line(elapsed time.Duration) string {
	pct := 100
	if b.total > 0 {
		pct = b.done * 100 / b.total
	}

	prefix := fmt.Sprintf("%s: %3d%%|", b.opts.Description, pct)
	suffix := fmt.Sprintf("| %d/%d [%s", b.done, b.total, formatElapsed(elapsed))
	if b.failed > 0 {
		suffix += fmt.Sprintf(", %d failed", b.failed)
	}
	suffix += "]"

	width := b.opts.Width - len(prefix) - len(suffix)
	if width < 1 {
		width = 1
	}
	filled := width * pct / 100
	return prefix + strings.Repeat("#", filled) + strings.Repeat(" ", width-filled) + suffix
}

// formatElapsed renders mm:ss, or h:mm:ss past an hour.
func formatElapsed(d time.Duration) string {
	s := int(d.Seconds())
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// WriteSummary prints the batch totals in megabytes (10^6 bytes).
func WriteSummary(w io.Writer, report *domain.BatchReport) {
	fmt.Fprintln(w, "=========================================================")
	fmt.Fprintf(w, "total downloaded: %.2f Mb\n", report.Megabytes())
	fmt.Fprintf(w, "avg download speed: %.2f Mb/s\n", report.MegabytesPerSecond())
	fmt.Fprintf(w, "files: %d downloaded, %d skipped, %d failed\n",
		report.Downloaded(), report.Skipped(), report.Failed())
	fmt.Fprintf(w, "time elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
}
