package storage

import (
	"context"
	"fmt"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// Config selects and configures a mirror target.
type Config struct {
	Type      output.StorageType
	LocalPath string
	S3        S3Config
	Azure     AzureConfig
}

// New creates the adapter for cfg.Type.
func New(ctx context.Context, cfg Config) (output.ObjectStorage, error) {
	switch cfg.Type {
	case output.StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath), nil
	case output.StorageTypeS3:
		s, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("creating s3 storage: %w", err)
		}
		return s, nil
	case output.StorageTypeAzure:
		s, err := NewAzureStorage(cfg.Azure)
		if err != nil {
			return nil, fmt.Errorf("creating azure storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStorage, cfg.Type)
	}
}
