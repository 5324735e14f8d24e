// Package main provides the entry point for the granula downloader.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jobrunner/granula/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "granula",
	Short: "granula - NASA Earthdata granule downloader",
	Long: `granula searches NASA's CMR for the granules of a dataset and downloads
them concurrently using Earthdata Login credentials.

Features:
  - Credentials from ~/.netrc or an interactive prompt
  - Scrolling CMR search (table, csv, json, yaml output)
  - Bounded concurrent downloads that skip existing files
  - Optional download history in SQLite
  - Mirroring of the download directory to S3, Azure Blob or a local path
  - Prometheus metrics`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "granula %s\n", version)
		fmt.Fprintf(out, "  Commit:     %s\n", commit)
		fmt.Fprintf(out, "  Build Date: %s\n", buildDate)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (json, text)")
	rootCmd.PersistentFlags().String("netrc", "", "netrc file with Earthdata credentials (default: ~/.netrc)")
	rootCmd.PersistentFlags().Bool("prompt", true, "prompt for credentials when netrc has none")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "write Prometheus metrics to this file on exit")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("earthdata.netrc", rootCmd.PersistentFlags().Lookup("netrc"))
	_ = viper.BindPFlag("earthdata.prompt", rootCmd.PersistentFlags().Lookup("prompt"))
	_ = viper.BindPFlag("metrics.textfile", rootCmd.PersistentFlags().Lookup("metrics-textfile"))

	rootCmd.AddCommand(searchCmd, downloadCmd, fetchCmd, historyCmd, mirrorCmd, versionCmd)
}

// loadConfig binds the command's own flags and loads the configuration.
// Subcommands share config keys such as download.dir, so binding happens
// per invocation rather than in init.
func loadConfig(flags *pflag.FlagSet, bindings map[string]string) (*config.Config, *slog.Logger, error) {
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	// stdout carries command output
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
