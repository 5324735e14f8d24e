package application

import (
	"context"

	"github.com/jobrunner/granula/internal/ports/input"
)

// HealthService provides health check functionality for the mirror server.
type HealthService struct {
	mirror *MirrorService
}

// NewHealthService creates a new health service.
func NewHealthService(mirror *MirrorService) *HealthService {
	return &HealthService{
		mirror: mirror,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	status := s.mirror.Status()

	storage := "ok"
	if status.LastError != "" {
		storage = "error: " + status.LastError
	}

	return input.HealthDetails{
		Healthy:    s.IsHealthy(ctx),
		LocalFiles: s.mirror.LocalFileCount(),
		Mirrored:   status.TotalFiles,
		Components: map[string]string{
			"storage": storage,
		},
	}
}
