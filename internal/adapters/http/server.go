// Package http provides the mirror status server and its handlers.
package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jobrunner/granula/internal/application"
	"github.com/jobrunner/granula/internal/config"
	"github.com/jobrunner/granula/internal/ports/input"
)

// SyncTrigger runs a rate-limited manual mirror sync.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) (application.SyncResult, error)
}

// MetricsExporter exposes collected metrics over HTTP.
type MetricsExporter interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// Server wraps the HTTP server with mirror status handlers.
type Server struct {
	server  *http.Server
	router  *mux.Router
	mirror  input.MirrorSyncer
	health  input.HealthChecker
	sync    SyncTrigger
	metrics MetricsExporter
	logger  *slog.Logger
	config  config.ServerConfig
}

// NewServer creates a new HTTP server. sync and metrics may be nil, in which
// case their routes are not registered.
func NewServer(
	cfg config.ServerConfig,
	mirror input.MirrorSyncer,
	health input.HealthChecker,
	sync SyncTrigger,
	metrics MetricsExporter,
	logger *slog.Logger,
) *Server {
	s := &Server{
		mirror:  mirror,
		health:  health,
		sync:    sync,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/mirror", s.handleMirrorStatus).Methods(http.MethodGet)
	if s.sync != nil {
		api.HandleFunc("/mirror/sync", s.handleSync).Methods(http.MethodPost)
	}

	return r
}

// Router returns the mux router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// UseTLS serves HTTPS with the given configuration, which must provide the
// certificates.
func (s *Server) UseTLS(cfg *tls.Config) {
	s.server.TLSConfig = cfg
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	if s.server.TLSConfig != nil {
		s.logger.Info("starting HTTPS server", "address", s.config.Address())
		return s.server.ListenAndServeTLS("", "")
	}
	s.logger.Info("starting HTTP server", "address", s.config.Address())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs incoming requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware recovers from panics.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
