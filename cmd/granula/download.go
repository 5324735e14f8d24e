package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/jobrunner/granula/internal/adapters/earthdata"
	"github.com/jobrunner/granula/internal/adapters/fetcher"
	"github.com/jobrunner/granula/internal/adapters/progress"
	"github.com/jobrunner/granula/internal/app"
	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Search a dataset and download its granules",
	Example: `  granula download --short-name ECCO_L4_SSH_05DEG_MONTHLY_V4R4 \
    --start 1992-01-01 --end 1992-12-31 --dir ./ecco --workers 4`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url...]",
	Short: "Download an explicit list of URLs",
	Long: `Download the given URLs with the same session, concurrency and skip rules
as the download command. URLs are read from the arguments and from --file
(one per line, "-" for stdin, lines starting with # ignored).`,
	RunE: runFetch,
}

func init() {
	addSearchFlags(downloadCmd.Flags())
	addDownloadFlags(downloadCmd.Flags())

	addDownloadFlags(fetchCmd.Flags())
	fetchCmd.Flags().StringP("file", "f", "", "file with one URL per line (- for stdin)")
}

var downloadBindings = map[string]string{
	"download.dir":        "dir",
	"download.workers":    "workers",
	"download.force":      "force",
	"download.progress":   "progress",
	"download.chunk_size": "chunk-size",
	"http.timeout":        "timeout",
	"ledger.enabled":      "ledger",
	"ledger.path":         "ledger-path",
}

func addDownloadFlags(fs *pflag.FlagSet) {
	fs.StringP("dir", "d", ".", "existing output directory")
	fs.IntP("workers", "w", 3, "concurrent downloads")
	fs.Bool("force", false, "re-download files that already exist")
	fs.Bool("progress", true, "draw a progress bar on stderr")
	fs.Int("chunk-size", 1024, "streaming chunk size in bytes")
	fs.Duration("timeout", 0, "per-request timeout (0 for none)")
	fs.Bool("ledger", false, "record downloads in the history database")
	fs.String("ledger-path", "./granula.db", "history database path")
}

func runDownload(cmd *cobra.Command, _ []string) error {
	bindings := map[string]string{}
	maps.Copy(bindings, searchBindings)
	maps.Copy(bindings, downloadBindings)

	cfg, logger, err := loadConfig(cmd.Flags(), bindings)
	if err != nil {
		return err
	}

	params, err := searchParams(cmd.Flags(), cfg)
	if err != nil {
		return err
	}
	if err := fetcher.CheckDir(cfg.Download.Dir); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer closeApp(a)

	creds, err := a.Credentials(ctx, earthdata.NewPrompter())
	if err != nil {
		return err
	}

	p, err := a.NewPipeline(creds, newProgress(a.Config.Download.Progress))
	if err != nil {
		return err
	}

	rs, report, err := p.Granules.Download(ctx, params, cfg.Download.Dir, cfg.Download.Force)
	if err != nil && report == nil {
		return err
	}
	logger.Info("search complete", "granules", rs.Len(), "pages", rs.Pages)

	return finishBatch(cmd.OutOrStdout(), report, err)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd.Flags(), downloadBindings)
	if err != nil {
		return err
	}

	urls := append([]string(nil), args...)
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		listed, err := readURLList(file, cmd.InOrStdin())
		if err != nil {
			return err
		}
		urls = append(urls, listed...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given")
	}
	if err := fetcher.CheckDir(cfg.Download.Dir); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer closeApp(a)

	creds, err := a.Credentials(ctx, earthdata.NewPrompter())
	if err != nil {
		return err
	}

	p, err := a.NewPipeline(creds, newProgress(a.Config.Download.Progress))
	if err != nil {
		return err
	}

	report, err := p.Downloads.DownloadAll(ctx, urls, cfg.Download.Dir, cfg.Download.Force)
	if err != nil && report == nil {
		return err
	}

	return finishBatch(cmd.OutOrStdout(), report, err)
}

// finishBatch prints the summary and turns failed transfers into an error.
// batchErr is a cancellation that still produced a partial report.
func finishBatch(w io.Writer, report *domain.BatchReport, batchErr error) error {
	progress.WriteSummary(w, report)

	if batchErr != nil {
		return batchErr
	}
	if report.Failed() > 0 {
		return fmt.Errorf("%d of %d downloads failed: %w", report.Failed(), len(report.Outcomes), report.Err())
	}
	return nil
}

// newProgress returns a bar on stderr when enabled and stderr is a terminal.
func newProgress(enabled bool) output.ProgressReporter {
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return output.NoOpProgress{}
	}
	return progress.NewBar(progress.Options{})
}

// readURLList reads one URL per line. Blank lines and # comments are skipped.
func readURLList(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening url list: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading url list: %w", err)
	}
	return urls, nil
}
