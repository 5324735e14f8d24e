package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobrunner/granula/internal/app"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy downloaded granules to object storage",
	Long: `Upload every file in the download directory that is missing from the
configured storage (local path, S3 or Azure Blob). Hidden files and partial
downloads are ignored.

With --watch, granula keeps running: new files are mirrored as they appear,
and a status server exposes /health, /metrics, GET /api/v1/mirror and
POST /api/v1/mirror/sync.`,
	Args: cobra.NoArgs,
	RunE: runMirror,
}

func init() {
	mirrorCmd.Flags().StringP("dir", "d", ".", "download directory to mirror")
	mirrorCmd.Flags().Bool("watch", false, "keep watching the directory and serve status")
	mirrorCmd.Flags().String("storage-type", "local", "storage type (local, s3, azure)")
	mirrorCmd.Flags().String("storage-path", "../granula-mirror", "local storage path (outside the download directory)")
	mirrorCmd.Flags().String("host", "127.0.0.1", "status server host")
	mirrorCmd.Flags().Int("port", 8080, "status server port")
	mirrorCmd.Flags().Duration("sync-interval", 0, "periodic full sync interval in watch mode (0 disables)")
	mirrorCmd.Flags().Bool("tls", false, "serve status over HTTPS with ACME certificates")
	mirrorCmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	mirrorCmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")
}

func runMirror(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.Flags(), map[string]string{
		"download.dir":         "dir",
		"storage.type":         "storage-type",
		"storage.local_path":   "storage-path",
		"server.host":          "host",
		"server.port":          "port",
		"mirror.sync_interval": "sync-interval",
		"server.tls.enabled":   "tls",
		"server.tls.domains":   "tls-domains",
		"server.tls.email":     "tls-email",
	})
	if err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer closeApp(a)

	m, err := a.NewMirror(ctx, watch)
	if err != nil {
		return err
	}

	if !watch {
		stats, err := m.Service.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mirrored to %s: %d uploaded, %d skipped, %d failed\n",
			m.Storage, stats.Uploaded, stats.Skipped, stats.Failed)
		if stats.Failed > 0 {
			return fmt.Errorf("%d uploads failed", stats.Failed)
		}
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := m.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case runErr = <-serverErr:
		logger.Error("mirror error", "error", runErr)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := m.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("mirror stopped")
	return runErr
}
