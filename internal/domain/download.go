package domain

import (
	"errors"
	"time"
)

// DownloadTask describes one file to fetch.
type DownloadTask struct {
	URL   string // Remote file URL
	Dir   string // Existing destination directory
	Force bool   // Re-download even if the file exists
}

// FetchResult is what the fetcher reports for a single task.
type FetchResult struct {
	Path    string // Local target path
	Bytes   int64  // Reported size (0 when skipped)
	Skipped bool   // File already existed and Force was false
}

// DownloadStatus is the tag of a download outcome.
type DownloadStatus string

const (
	StatusDownloaded DownloadStatus = "downloaded"
	StatusSkipped    DownloadStatus = "skipped"
	StatusFailed     DownloadStatus = "failed"
)

// DownloadOutcome is the per-task result-or-error of a batch.
type DownloadOutcome struct {
	URL      string
	Path     string
	Bytes    int64
	Status   DownloadStatus
	Err      error
	Duration time.Duration
}

// BatchReport aggregates the outcomes of one download batch.
// Outcomes are positional: Outcomes[i] belongs to the i-th input URL.
type BatchReport struct {
	Outcomes []DownloadOutcome
	Elapsed  time.Duration
}

// TotalBytes sums the bytes of downloaded files.
func (r *BatchReport) TotalBytes() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if o.Status == StatusDownloaded {
			total += o.Bytes
		}
	}
	return total
}

// Downloaded returns the number of files fetched from the network.
func (r *BatchReport) Downloaded() int {
	return r.count(StatusDownloaded)
}

// Skipped returns the number of files that already existed.
func (r *BatchReport) Skipped() int {
	return r.count(StatusSkipped)
}

// Failed returns the number of files that could not be fetched.
func (r *BatchReport) Failed() int {
	return r.count(StatusFailed)
}

func (r *BatchReport) count(status DownloadStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Megabytes returns the downloaded volume in MB (10^6 bytes).
func (r *BatchReport) Megabytes() float64 {
	return float64(r.TotalBytes()) / 1e6
}

// MegabytesPerSecond is total bytes over total batch time. It is a coarse
// batch average, not a per-transfer rate.
func (r *BatchReport) MegabytesPerSecond() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return r.Megabytes() / secs
}

// Err joins the errors of all failed outcomes, or returns nil.
func (r *BatchReport) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// LedgerEntry is one recorded download.
type LedgerEntry struct {
	ID           int64     `json:"id" yaml:"id"`
	URL          string    `json:"url" yaml:"url"`
	Path         string    `json:"path" yaml:"path"`
	Bytes        int64     `json:"bytes" yaml:"bytes"`
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`
}
