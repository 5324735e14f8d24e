package output

import (
	"context"

	"github.com/jobrunner/granula/internal/domain"
)

// FileFetcher defines the secondary port for downloading a single file.
type FileFetcher interface {
	// CheckDir verifies that dir exists and is a directory.
	CheckDir(dir string) error

	// Fetch downloads task.URL into task.Dir.
	Fetch(ctx context.Context, task domain.DownloadTask) (domain.FetchResult, error)
}

// ProgressReporter receives batch progress events.
type ProgressReporter interface {
	// Start is called once with the number of tasks in the batch.
	Start(total int)

	// Advance is called once per completed task.
	Advance(outcome domain.DownloadOutcome)

	// Finish is called after the last task completed.
	Finish()
}

// NoOpProgress is a no-op implementation of ProgressReporter.
type NoOpProgress struct{}

// Start implements ProgressReporter.
func (NoOpProgress) Start(_ int) {}

// Advance implements ProgressReporter.
func (NoOpProgress) Advance(_ domain.DownloadOutcome) {}

// Finish implements ProgressReporter.
func (NoOpProgress) Finish() {}
