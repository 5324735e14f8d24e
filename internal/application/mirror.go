package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// MirrorService copies completed downloads into object storage.
type MirrorService struct {
	storage  output.ObjectStorage
	metrics  output.MetricsCollector
	logger   *slog.Logger
	localDir string
	target   string

	// Prevents concurrent sync operations
	syncOpMutex sync.Mutex

	mu     sync.RWMutex
	status domain.MirrorStatus
}

// NewMirrorService creates a mirror of localDir into storage. target is a
// human-readable description of the storage used in status output.
func NewMirrorService(
	storage output.ObjectStorage,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	localDir string,
	target string,
) *MirrorService {
	return &MirrorService{
		storage:  storage,
		metrics:  metrics,
		logger:   logger,
		localDir: localDir,
		target:   target,
		status:   domain.MirrorStatus{Target: target, LocalDir: localDir},
	}
}

// Sync uploads every local file whose key is absent from storage or whose
// stored size differs from the local one.
func (s *MirrorService) Sync(ctx context.Context) (domain.MirrorStats, error) {
	s.syncOpMutex.Lock()
	defer s.syncOpMutex.Unlock()

	s.logger.Info("syncing mirror", "dir", s.localDir, "target", s.target)

	local, err := s.localFiles()
	if err != nil {
		s.setResult(domain.MirrorStats{}, err)
		return domain.MirrorStats{}, err
	}

	start := time.Now()
	objects, err := s.storage.List(ctx)
	s.metrics.IncStorageOperations("list", err == nil)
	s.metrics.ObserveStorageDuration("list", time.Since(start))
	if err != nil {
		s.setResult(domain.MirrorStats{}, err)
		return domain.MirrorStats{}, err
	}

	remote := make(map[string]int64, len(objects))
	for _, obj := range objects {
		remote[obj.Key] = obj.Size
	}

	stats := domain.MirrorStats{}
	for _, f := range local {
		if err := ctx.Err(); err != nil {
			s.setResult(stats, err)
			return stats, err
		}

		if size, ok := remote[f.key]; ok && size == f.size {
			s.logger.Debug("already mirrored, skipping", "key", f.key)
			stats.Skipped++
			continue
		}

		if err := s.upload(ctx, f.key); err != nil {
			s.logger.Error("failed to mirror file", "key", f.key, "error", err)
			stats.Failed++
			continue
		}
		stats.Uploaded++
	}

	s.setResult(stats, nil)
	s.logger.Info("mirror sync completed",
		"uploaded", stats.Uploaded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}

// MirrorFile uploads a single file from the download directory unless
// storage already holds an object of the same size under its key. A file
// replaced by a forced re-download is uploaded again when its size changed.
// It returns true if the file was uploaded.
func (s *MirrorService) MirrorFile(ctx context.Context, path string) (bool, error) {
	if !domain.IsMirrorable(path) {
		return false, nil
	}

	key, err := s.keyFor(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	start := time.Now()
	obj, found, err := s.storage.Stat(ctx, key)
	s.metrics.IncStorageOperations("stat", err == nil)
	s.metrics.ObserveStorageDuration("stat", time.Since(start))
	if err != nil {
		return false, err
	}
	if found && obj.Size == info.Size() {
		s.logger.Debug("already mirrored, skipping", "key", key)
		return false, nil
	}

	if err := s.upload(ctx, key); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.status.TotalFiles++
	s.mu.Unlock()
	return true, nil
}

// Status returns the result of the last sync.
func (s *MirrorService) Status() domain.MirrorStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// LocalFileCount returns the number of mirrorable files in the download
// directory.
func (s *MirrorService) LocalFileCount() int {
	files, err := s.localFiles()
	if err != nil {
		return 0
	}
	return len(files)
}

func (s *MirrorService) upload(ctx context.Context, key string) error {
	src := filepath.Join(s.localDir, filepath.FromSlash(key))

	start := time.Now()
	err := s.storage.Upload(ctx, key, src)
	s.metrics.IncStorageOperations("upload", err == nil)
	s.metrics.ObserveStorageDuration("upload", time.Since(start))
	if err != nil {
		return err
	}

	s.logger.Info("file mirrored", "key", key)
	return nil
}

// localFile is a mirrorable file found in localDir.
type localFile struct {
	key  string
	size int64
}

// localFiles returns the mirrorable files in localDir.
func (s *MirrorService) localFiles() ([]localFile, error) {
	var files []localFile

	err := filepath.Walk(s.localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != s.localDir && !domain.IsMirrorable(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !domain.IsMirrorable(path) {
			return nil
		}

		key, err := s.keyFor(path)
		if err != nil {
			return err
		}
		files = append(files, localFile{key: key, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.localDir, err)
	}

	return files, nil
}

// keyFor maps a path inside localDir to a slash-separated storage key.
func (s *MirrorService) keyFor(path string) (string, error) {
	base, err := filepath.Abs(s.localDir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", s.localDir, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}

	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not under %s", domain.ErrInvalidInput, path, s.localDir)
	}
	if rel == ".." || filepath.IsAbs(rel) || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not under %s", domain.ErrInvalidInput, path, s.localDir)
	}
	return filepath.ToSlash(rel), nil
}

func (s *MirrorService) setResult(stats domain.MirrorStats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.LastSync = time.Now()
	s.status.LastStats = stats
	s.status.TotalFiles += stats.Uploaded
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
}
