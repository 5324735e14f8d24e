// Package fetcher downloads single files over HTTP into a local directory.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/jobrunner/granula/internal/domain"
)

// DefaultChunkSize is the read size used while streaming a body.
const DefaultChunkSize = 1024

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 << 10

// Config holds fetcher configuration.
type Config struct {
	ChunkSize int // Bytes per read; default 1024
}

// HTTPFetcher implements FileFetcher on an authenticated HTTP client.
type HTTPFetcher struct {
	client    *http.Client
	chunkSize int
	logger    *slog.Logger
}

// NewHTTPFetcher creates a fetcher that issues requests with client.
func NewHTTPFetcher(client *http.Client, cfg Config, logger *slog.Logger) *HTTPFetcher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPFetcher{
		client:    client,
		chunkSize: cfg.ChunkSize,
		logger:    logger,
	}
}

// CheckDir verifies that dir exists and is a directory.
func (f *HTTPFetcher) CheckDir(dir string) error {
	return CheckDir(dir)
}

// CheckDir verifies that dir exists and is a directory. Errors wrap
// domain.ErrOutputDirMissing.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &domain.ConfigError{
			Field:   "download.dir",
			Message: fmt.Sprintf("%s: %v", dir, err),
			Err:     domain.ErrOutputDirMissing,
		}
	}
	if !info.IsDir() {
		return &domain.ConfigError{
			Field:   "download.dir",
			Message: dir + " is not a directory",
			Err:     domain.ErrOutputDirMissing,
		}
	}
	return nil
}

// TargetName returns the local file name for a URL: the last path segment.
func TargetName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme in %q", domain.ErrInvalidURL, rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: no file name in %q", domain.ErrInvalidURL, rawURL)
	}
	return name, nil
}

// Fetch downloads task.URL to task.Dir/<basename>. An existing file is kept
// and reported as skipped unless task.Force is set. The body is written to a
// temporary file that is renamed into place only after a complete transfer.
func (f *HTTPFetcher) Fetch(ctx context.Context, task domain.DownloadTask) (domain.FetchResult, error) {
	if err := f.CheckDir(task.Dir); err != nil {
		return domain.FetchResult{}, err
	}

	name, err := TargetName(task.URL)
	if err != nil {
		return domain.FetchResult{}, err
	}
	target := filepath.Join(task.Dir, name)

	if !task.Force {
		if _, err := os.Stat(target); err == nil {
			f.logger.Debug("file exists, skipping", "path", target)
			return domain.FetchResult{Path: target, Skipped: true}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("downloading %s: %w", task.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.FetchResult{}, &domain.FetchError{
			URL:        task.URL,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	written, err := f.writeAtomic(target, resp.Body)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("writing %s: %w", target, err)
	}

	size := resp.ContentLength
	if size < 0 {
		size = written
	}

	f.logger.Debug("file downloaded", "path", target, "bytes", size)
	return domain.FetchResult{Path: target, Bytes: size}, nil
}

// writeAtomic streams r into a hidden temporary file next to target and
// renames it over target on success. On failure the temporary file is removed.
func (f *HTTPFetcher) writeAtomic(target string, r io.Reader) (int64, error) {
	dir, name := filepath.Split(target)
	tmp, err := os.CreateTemp(dir, "."+name+".*"+domain.PartSuffix)
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	written, err := f.copyChunks(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, target)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return written, err
	}
	return written, nil
}

// copyChunks copies r to w in chunkSize reads. Empty reads are skipped.
func (f *HTTPFetcher) copyChunks(w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, f.chunkSize)
	var written int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
		}
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

