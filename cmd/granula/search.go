package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jobrunner/granula/internal/app"
	"github.com/jobrunner/granula/internal/config"
	"github.com/jobrunner/granula/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List the granules of a dataset",
	Example: `  granula search --short-name ECCO_L4_SSH_05DEG_MONTHLY_V4R4 \
    --start 1992-01-01 --end 1992-12-31 -o csv`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd.Flags())
	searchCmd.Flags().StringP("output", "o", "table", "output format (table, csv, json, yaml)")
}

// searchBindings maps config keys to flags shared by search and download.
var searchBindings = map[string]string{
	"cmr.page_size": "page-size",
	"cmr.provider":  "provider",
	"cmr.endpoint":  "cmr-endpoint",
}

func addSearchFlags(fs *pflag.FlagSet) {
	fs.String("short-name", "", "dataset ShortName (e.g. ECCO_L4_SSH_05DEG_MONTHLY_V4R4)")
	fs.String("provider", "POCLOUD", "CMR provider")
	fs.String("start", "", "temporal start (RFC3339 or YYYY-MM-DD)")
	fs.String("end", "", "temporal end (RFC3339 or YYYY-MM-DD)")
	fs.String("bbox", "", "bounding box W,S,E,N in decimal degrees")
	fs.StringToString("param", nil, "additional CMR query parameter key=value (repeatable)")
	fs.Int("page-size", 2000, "granules per search page")
	fs.String("cmr-endpoint", "https://cmr.earthdata.nasa.gov/search/granules.csv", "CMR granule search endpoint")
}

// searchParams builds the search filters from flags. The provider comes from
// the loaded config so a config file can set it.
func searchParams(fs *pflag.FlagSet, cfg *config.Config) (domain.SearchParams, error) {
	shortName, _ := fs.GetString("short-name")
	extra, _ := fs.GetStringToString("param")

	params := domain.SearchParams{
		ShortName: shortName,
		Provider:  cfg.CMR.Provider,
		Extra:     extra,
	}

	var err error
	if s, _ := fs.GetString("start"); s != "" {
		if params.TemporalStart, err = parseTime(s, false); err != nil {
			return params, err
		}
	}
	if s, _ := fs.GetString("end"); s != "" {
		if params.TemporalEnd, err = parseTime(s, true); err != nil {
			return params, err
		}
	}
	if s, _ := fs.GetString("bbox"); s != "" {
		if params.BoundingBox, err = domain.ParseBoundingBox(s); err != nil {
			return params, err
		}
	}

	return params, params.Validate()
}

// parseTime accepts RFC3339 or a plain date. A plain end date covers the
// whole day.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{
			Field:   "temporal",
			Value:   s,
			Message: "expected RFC3339 or YYYY-MM-DD",
		}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.Flags(), searchBindings)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("output")
	if !validFormat(format) {
		return fmt.Errorf("unknown output format %q", format)
	}

	params, err := searchParams(cmd.Flags(), cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer closeApp(a)

	// Search metadata is public; no credentials needed.
	p, err := a.NewPipeline(domain.Credentials{}, nil)
	if err != nil {
		return err
	}

	rs, err := p.Granules.Search(ctx, params)
	if err != nil {
		return err
	}

	return writeGranules(cmd.OutOrStdout(), format, rs)
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Error("closing application", "error", err)
	}
}
