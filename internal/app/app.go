// Package app provides application initialization and wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jobrunner/granula/internal/adapters/cmr"
	"github.com/jobrunner/granula/internal/adapters/earthdata"
	"github.com/jobrunner/granula/internal/adapters/fetcher"
	"github.com/jobrunner/granula/internal/adapters/ledger"
	"github.com/jobrunner/granula/internal/adapters/metrics"
	"github.com/jobrunner/granula/internal/application"
	"github.com/jobrunner/granula/internal/config"
	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// App holds the components shared by all commands.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Ledger  *ledger.SQLiteLedger
}

// Pipeline is the search and download chain built on one HTTP session.
type Pipeline struct {
	Session   *http.Client
	Catalog   *cmr.Client
	Fetcher   *fetcher.HTTPFetcher
	Downloads *application.DownloadService
	Granules  *application.GranuleService
}

// New creates the shared components. The ledger database is opened only
// when enabled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	if cfg.Ledger.Enabled {
		l, err := ledger.Open(ctx, cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("opening ledger: %w", err)
		}
		app.Ledger = l
	}

	return app, nil
}

// MetricsCollector returns the collector as a port, or a no-op when
// metrics are disabled.
func (a *App) MetricsCollector() output.MetricsCollector {
	if a.Metrics == nil {
		return &output.NoOpMetrics{}
	}
	return a.Metrics
}

// DownloadLedger returns the ledger as a port, or nil when disabled.
func (a *App) DownloadLedger() output.DownloadLedger {
	if a.Ledger == nil {
		return nil
	}
	return a.Ledger
}

// Credentials resolves Earthdata credentials from netrc, then from an
// interactive prompt when enabled.
func (a *App) Credentials(ctx context.Context, prompter output.CredentialSource) (domain.Credentials, error) {
	sources := []output.CredentialSource{earthdata.NewNetrcSource(a.Config.Earthdata.Netrc)}
	if a.Config.Earthdata.Prompt && prompter != nil {
		sources = append(sources, prompter)
	}

	creds, err := earthdata.Resolve(ctx, a.Config.Earthdata.Realm, sources...)
	if err != nil {
		return domain.Credentials{}, err
	}
	a.Logger.Debug("resolved credentials", "realm", a.Config.Earthdata.Realm, "user", creds.Username)
	return creds, nil
}

// NewPipeline builds the session, search client, fetcher and services.
// Empty credentials produce an anonymous session.
func (a *App) NewPipeline(creds domain.Credentials, progress output.ProgressReporter) (*Pipeline, error) {
	session, err := earthdata.NewSession(a.Config.Earthdata.Realm, creds, earthdata.SessionOptions{
		Timeout:   a.Config.HTTP.Timeout,
		UserAgent: a.Config.HTTP.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	p := &Pipeline{Session: session}

	p.Catalog = cmr.NewClient(session, cmr.Config{
		Endpoint: a.Config.CMR.Endpoint,
		PageSize: a.Config.CMR.PageSize,
	}, a.Logger)

	p.Fetcher = fetcher.NewHTTPFetcher(session, fetcher.Config{
		ChunkSize: a.Config.Download.ChunkSize,
	}, a.Logger)

	p.Downloads = application.NewDownloadService(
		p.Fetcher,
		a.DownloadLedger(),
		progress,
		a.MetricsCollector(),
		a.Logger,
		a.Config.Download.Workers,
	)

	p.Granules = application.NewGranuleService(p.Catalog, p.Downloads, a.MetricsCollector(), a.Logger)

	return p, nil
}

// Close releases the ledger and exports metrics to the configured textfile.
func (a *App) Close() error {
	var errs []error

	if a.Metrics != nil && a.Config.Metrics.Textfile != "" {
		if err := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics textfile: %w", err))
		}
	}

	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing ledger: %w", err))
		}
	}

	return errors.Join(errs...)
}
