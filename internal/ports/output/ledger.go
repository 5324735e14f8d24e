package output

import (
	"context"

	"github.com/jobrunner/granula/internal/domain"
)

// DownloadLedger records completed downloads. It is never consulted when
// deciding whether to skip a file.
type DownloadLedger interface {
	// Record stores one completed download.
	Record(ctx context.Context, entry domain.LedgerEntry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.LedgerEntry, error)

	// Close releases the underlying database.
	Close() error
}
