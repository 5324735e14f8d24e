package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/input"
	"github.com/jobrunner/granula/internal/ports/output"
)

// GranuleService runs the search-then-download pipeline.
type GranuleService struct {
	catalog    output.GranuleCatalog
	downloader input.Downloader
	metrics    output.MetricsCollector
	logger     *slog.Logger
}

// NewGranuleService creates a new granule service.
func NewGranuleService(
	catalog output.GranuleCatalog,
	downloader input.Downloader,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *GranuleService {
	return &GranuleService{
		catalog:    catalog,
		downloader: downloader,
		metrics:    metrics,
		logger:     logger,
	}
}

// Search returns all granules matching params.
func (s *GranuleService) Search(ctx context.Context, params domain.SearchParams) (*domain.ResultSet, error) {
	start := time.Now()
	rs, err := s.catalog.Search(ctx, params)
	s.metrics.IncSearchRequests(err == nil || errors.Is(err, domain.ErrNoGranules))
	if err != nil {
		if errors.Is(err, domain.ErrNoGranules) {
			s.metrics.SetSearchHits(0)
		}
		return nil, err
	}

	s.metrics.SetSearchHits(rs.Hits)
	s.logger.Info("search completed",
		"short_name", params.ShortName,
		"hits", rs.Hits,
		"pages", rs.Pages,
		"duration", time.Since(start),
	)
	return rs, nil
}

// Download searches and downloads every http(s) granule link into dir.
// A missing dir fails before the search is issued. domain.ErrNoGranules is
// returned unchanged.
func (s *GranuleService) Download(ctx context.Context, params domain.SearchParams, dir string, force bool) (*domain.ResultSet, *domain.BatchReport, error) {
	if err := s.downloader.CheckDir(dir); err != nil {
		return nil, nil, err
	}

	rs, err := s.Search(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	urls := rs.DownloadURLs()
	if len(urls) == 0 {
		s.logger.Warn("granules have no http download links", "granules", rs.Len())
	}

	report, err := s.downloader.DownloadAll(ctx, urls, dir, force)
	return rs, report, err
}
