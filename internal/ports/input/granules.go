// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/granula/internal/domain"
)

// GranuleSearcher defines the primary port for granule search.
type GranuleSearcher interface {
	// Search returns all granules matching params.
	Search(ctx context.Context, params domain.SearchParams) (*domain.ResultSet, error)
}

// Downloader defines the primary port for batch downloads.
type Downloader interface {
	// CheckDir verifies the output directory before any transfer.
	CheckDir(dir string) error

	// DownloadAll fetches urls into dir with bounded concurrency.
	DownloadAll(ctx context.Context, urls []string, dir string, force bool) (*domain.BatchReport, error)
}

// MirrorSyncer defines the primary port for the download mirror.
type MirrorSyncer interface {
	// Sync uploads every local file missing from the mirror.
	Sync(ctx context.Context) (domain.MirrorStats, error)

	// Status returns the result of the last sync.
	Status() domain.MirrorStatus
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy    bool              // Overall health status
	LocalFiles int               // Files in the download directory
	Mirrored   int               // Files uploaded since start
	Components map[string]string // Component statuses
}
