package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jobrunner/granula/internal/application"
	"github.com/jobrunner/granula/internal/domain"
)

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":      boolToStatus(details.Healthy),
		"local_files": details.LocalFiles,
		"mirrored":    details.Mirrored,
		"components":  details.Components,
	})
}

// handleMirrorStatus returns the outcome of the last mirror sync.
func (s *Server) handleMirrorStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mirror.Status())
}

// handleSync handles the sync trigger endpoint.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.sync.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", strconv.Itoa(int(application.SyncCooldown.Seconds())))
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
			return
		}
		s.logger.Error("sync failed", "error", err)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			s.writeError(w, http.StatusServiceUnavailable, "Mirror storage unavailable")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
