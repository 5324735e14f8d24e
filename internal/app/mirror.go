package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	httpAdapter "github.com/jobrunner/granula/internal/adapters/http"
	"github.com/jobrunner/granula/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/granula/internal/adapters/tls"
	"github.com/jobrunner/granula/internal/adapters/watcher"
	"github.com/jobrunner/granula/internal/application"
	"github.com/jobrunner/granula/internal/config"
	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// Mirror holds the components of the download mirror.
type Mirror struct {
	app *App

	Storage       output.ObjectStorage
	Service       *application.MirrorService
	SyncService   *application.SyncService
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	Watcher       *watcher.Watcher
}

// NewMirror creates the mirror of the download directory. The watcher,
// sync scheduler and status server are only built when watch is true.
func (a *App) NewMirror(ctx context.Context, watch bool) (*Mirror, error) {
	if err := checkMirrorTarget(a.Config.Download.Dir, a.Config.Storage); err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, storageConfig(a.Config.Storage))
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	m := &Mirror{app: a, Storage: store}

	m.Service = application.NewMirrorService(
		store,
		a.MetricsCollector(),
		a.Logger,
		a.Config.Download.Dir,
		fmt.Sprint(store),
	)

	if !watch {
		return m, nil
	}

	m.SyncService = application.NewSyncService(m.Service, a.Config.Mirror.SyncInterval, a.Logger)
	m.HealthService = application.NewHealthService(m.Service)

	var exporter httpAdapter.MetricsExporter
	if a.Metrics != nil {
		exporter = a.Metrics
	}
	m.HTTPServer = httpAdapter.NewServer(
		a.Config.Server,
		m.Service,
		m.HealthService,
		m.SyncService,
		exporter,
		a.Logger,
	)

	if tlsCfg := a.Config.Server.TLS; tlsCfg.Enabled {
		tc, err := tlsAdapter.NewTLSConfig(tlsAdapter.Config{
			Domains:  tlsCfg.Domains,
			Email:    tlsCfg.Email,
			CacheDir: tlsCfg.CacheDir,
			Staging:  tlsCfg.Staging,
			AzureDNS: tlsAdapter.AzureDNSConfig{
				SubscriptionID:    tlsCfg.AzureDNS.SubscriptionID,
				ResourceGroupName: tlsCfg.AzureDNS.ResourceGroupName,
				ClientID:          tlsCfg.AzureDNS.ClientID,
			},
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		m.HTTPServer.UseTLS(tc)
	}

	w, err := watcher.New(
		watcher.Config{
			Paths:    []string{a.Config.Download.Dir},
			Debounce: a.Config.Mirror.DebounceDuration,
		},
		m.handleFileEvent,
		a.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing file watcher: %w", err)
	}
	m.Watcher = w

	return m, nil
}

// Start runs an initial sync, starts the watcher and scheduler, then serves
// the status API until Shutdown.
func (m *Mirror) Start(ctx context.Context) error {
	if _, err := m.Service.Sync(ctx); err != nil {
		m.app.Logger.Warn("initial mirror sync failed", "error", err)
	}

	if err := m.Watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}

	m.SyncService.Start(ctx)

	return m.HTTPServer.Start()
}

// Shutdown gracefully stops all components.
func (m *Mirror) Shutdown(ctx context.Context) error {
	m.app.Logger.Info("shutting down mirror")

	if m.Watcher != nil {
		_ = m.Watcher.Stop()
	}

	if m.SyncService != nil {
		m.SyncService.Stop()
	}

	if m.HTTPServer != nil {
		if err := m.HTTPServer.Shutdown(ctx); err != nil {
			m.app.Logger.Error("HTTP server shutdown error", "error", err)
		}
	}

	return nil
}

// handleFileEvent mirrors files that appear in the download directory.
// Deletions are not propagated.
func (m *Mirror) handleFileEvent(ctx context.Context, event watcher.Event) error {
	m.app.Logger.Debug("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		uploaded, err := m.Service.MirrorFile(ctx, event.Path)
		if err != nil {
			return err
		}
		if uploaded {
			m.app.Logger.Info("mirrored file", "path", event.Path)
		}
	}

	return nil
}

// checkMirrorTarget rejects a local target inside the download directory,
// which would be mirrored into itself.
func checkMirrorTarget(downloadDir string, cfg config.StorageConfig) error {
	if cfg.Type != string(output.StorageTypeLocal) {
		return nil
	}

	src, err := filepath.Abs(downloadDir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", downloadDir, err)
	}
	dst, err := filepath.Abs(cfg.LocalPath)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", cfg.LocalPath, err)
	}

	rel, err := filepath.Rel(src, dst)
	if err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
		return &domain.ConfigError{
			Field:   "storage.local_path",
			Message: fmt.Sprintf("%s is inside the download directory %s", cfg.LocalPath, downloadDir),
		}
	}
	return nil
}

func storageConfig(cfg config.StorageConfig) storage.Config {
	return storage.Config{
		Type:      output.StorageType(cfg.Type),
		LocalPath: cfg.LocalPath,
		S3: storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		},
		Azure: storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		},
	}
}
