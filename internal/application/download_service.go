// Package application contains the application services.
package application

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// DefaultWorkers is the default number of concurrent downloads.
const DefaultWorkers = 3

// DownloadService fetches batches of files with bounded concurrency.
type DownloadService struct {
	fetcher  output.FileFetcher
	ledger   output.DownloadLedger
	progress output.ProgressReporter
	metrics  output.MetricsCollector
	logger   *slog.Logger
	workers  int
}

// NewDownloadService creates a new download service. ledger and progress
// may be nil.
func NewDownloadService(
	fetcher output.FileFetcher,
	ledger output.DownloadLedger,
	progress output.ProgressReporter,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	workers int,
) *DownloadService {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if progress == nil {
		progress = output.NoOpProgress{}
	}

	return &DownloadService{
		fetcher:  fetcher,
		ledger:   ledger,
		progress: progress,
		metrics:  metrics,
		logger:   logger,
		workers:  workers,
	}
}

// Workers returns the concurrency bound.
func (s *DownloadService) Workers() int {
	return s.workers
}

// CheckDir verifies that dir is an existing directory.
func (s *DownloadService) CheckDir(dir string) error {
	return s.fetcher.CheckDir(dir)
}

// DownloadAll fetches every URL into dir. At most Workers transfers run at
// once. A failing transfer is recorded in its outcome and does not stop the
// others; Outcomes[i] always describes urls[i].
//
// The returned error is reserved for a missing output directory, checked
// before any transfer starts, and for context cancellation. Per-file
// failures are reported through BatchReport.Err.
func (s *DownloadService) DownloadAll(ctx context.Context, urls []string, dir string, force bool) (*domain.BatchReport, error) {
	if err := s.fetcher.CheckDir(dir); err != nil {
		return nil, err
	}

	s.logger.Info("starting downloads", "files", len(urls), "dir", dir, "workers", s.workers, "force", force)

	start := time.Now()
	outcomes := make([]domain.DownloadOutcome, len(urls))
	s.progress.Start(len(urls))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, u := range urls {
		task := domain.DownloadTask{URL: u, Dir: dir, Force: force}
		g.Go(func() error {
			outcomes[i] = s.download(ctx, task)
			s.progress.Advance(outcomes[i])
			return nil
		})
	}
	_ = g.Wait()
	s.progress.Finish()

	report := &domain.BatchReport{Outcomes: outcomes, Elapsed: time.Since(start)}

	s.logger.Info("downloads finished",
		"downloaded", report.Downloaded(),
		"skipped", report.Skipped(),
		"failed", report.Failed(),
		"bytes", report.TotalBytes(),
		"elapsed", report.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// download runs one task and converts its result to an outcome.
func (s *DownloadService) download(ctx context.Context, task domain.DownloadTask) domain.DownloadOutcome {
	outcome := domain.DownloadOutcome{URL: task.URL}

	if err := ctx.Err(); err != nil {
		outcome.Status = domain.StatusFailed
		outcome.Err = err
		s.metrics.IncDownloads(string(outcome.Status))
		return outcome
	}

	start := time.Now()
	res, err := s.fetcher.Fetch(ctx, task)
	outcome.Duration = time.Since(start)
	outcome.Path = res.Path

	switch {
	case err != nil:
		outcome.Status = domain.StatusFailed
		outcome.Err = err
		s.logger.Warn("download failed", "url", task.URL, "error", err)
	case res.Skipped:
		outcome.Status = domain.StatusSkipped
		s.logger.Debug("download skipped", "url", task.URL, "path", res.Path)
	default:
		outcome.Status = domain.StatusDownloaded
		outcome.Bytes = res.Bytes
		s.metrics.AddDownloadedBytes(res.Bytes)
		s.metrics.ObserveDownloadDuration(outcome.Duration)
		s.record(ctx, outcome)
	}

	s.metrics.IncDownloads(string(outcome.Status))
	return outcome
}

// record writes a completed download to the ledger. Ledger failures are
// logged only; the file itself is already in place.
func (s *DownloadService) record(ctx context.Context, outcome domain.DownloadOutcome) {
	if s.ledger == nil {
		return
	}

	err := s.ledger.Record(ctx, domain.LedgerEntry{
		URL:   outcome.URL,
		Path:  outcome.Path,
		Bytes: outcome.Bytes,
	})
	if err != nil {
		s.logger.Warn("failed to record download", "url", outcome.URL, "error", err)
	}
}
