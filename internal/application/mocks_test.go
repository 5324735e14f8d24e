package application

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockFetcher implements output.FileFetcher for testing. Files that exist in
// the task dir are skipped; sizes and errors are looked up by URL.
type mockFetcher struct {
	sizes  map[string]int64
	errs   map[string]error
	delay  time.Duration
	dirErr error

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (m *mockFetcher) CheckDir(_ string) error {
	return m.dirErr
}

func (m *mockFetcher) Fetch(ctx context.Context, task domain.DownloadTask) (domain.FetchResult, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	target := filepath.Join(task.Dir, path.Base(task.URL))
	if !task.Force {
		if _, err := os.Stat(target); err == nil {
			return domain.FetchResult{Path: target, Skipped: true}, nil
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return domain.FetchResult{}, ctx.Err()
		}
	}

	if err := m.errs[task.URL]; err != nil {
		return domain.FetchResult{}, err
	}
	return domain.FetchResult{Path: target, Bytes: m.sizes[task.URL]}, nil
}

// mockCatalog implements output.GranuleCatalog for testing.
type mockCatalog struct {
	result *domain.ResultSet
	err    error
	calls  int
}

func (m *mockCatalog) Search(_ context.Context, _ domain.SearchParams) (*domain.ResultSet, error) {
	m.calls++
	return m.result, m.err
}

// mockDownloader implements input.Downloader for testing.
type mockDownloader struct {
	urls   []string
	dir    string
	dirErr error
}

func (m *mockDownloader) CheckDir(_ string) error {
	return m.dirErr
}

func (m *mockDownloader) DownloadAll(_ context.Context, urls []string, dir string, _ bool) (*domain.BatchReport, error) {
	m.urls = urls
	m.dir = dir
	return &domain.BatchReport{}, nil
}

// mockLedger implements output.DownloadLedger for testing.
type mockLedger struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
	err     error
}

func (m *mockLedger) Record(_ context.Context, e domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockLedger) Recent(_ context.Context, _ int) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, nil
}

func (m *mockLedger) Close() error { return nil }

// recordingProgress implements output.ProgressReporter for testing.
type recordingProgress struct {
	mu       sync.Mutex
	total    int
	advances int
	finished bool
}

func (p *recordingProgress) Start(total int) { p.total = total }

func (p *recordingProgress) Advance(_ domain.DownloadOutcome) {
	p.mu.Lock()
	p.advances++
	p.mu.Unlock()
}

func (p *recordingProgress) Finish() { p.finished = true }

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	mu        sync.Mutex
	objects   []output.StorageObject
	uploaded  map[string]string
	listErr   error
	uploadErr map[string]error
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Upload(_ context.Context, key, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.uploadErr[key]; err != nil {
		return err
	}
	if m.uploaded == nil {
		m.uploaded = make(map[string]string)
	}
	m.uploaded[key] = src
	return nil
}

func (m *mockStorage) Stat(_ context.Context, key string) (output.StorageObject, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if src, ok := m.uploaded[key]; ok {
		info, err := os.Stat(src)
		if err != nil {
			return output.StorageObject{}, false, err
		}
		return output.StorageObject{Key: key, Size: info.Size()}, true, nil
	}
	for _, obj := range m.objects {
		if obj.Key == key {
			return obj, true, nil
		}
	}
	return output.StorageObject{}, false, nil
}
