// Package storage provides mirror target adapters.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// LocalStorage implements ObjectStorage for a local (or mounted) directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage adapter.
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// List returns all mirrored files under the base directory.
func (s *LocalStorage) List(ctx context.Context) ([]output.StorageObject, error) {
	var objects []output.StorageObject

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if info.IsDir() || !domain.IsMirrorable(path) {
			return nil
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		objects = append(objects, output.StorageObject{
			Key:          filepath.ToSlash(relPath),
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
		})

		return nil
	})

	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Operation: "list", Err: err}
	}

	return objects, nil
}

// Upload copies src to key. The copy is written to a temporary file and
// renamed, so readers never see a partial object.
func (s *LocalStorage) Upload(ctx context.Context, key string, src string) error {
	dest := s.FullPath(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return &domain.StorageError{Operation: "upload", Key: key, Err: err}
	}

	if err := copyFile(ctx, src, dest); err != nil {
		return &domain.StorageError{Operation: "upload", Key: key, Err: err}
	}
	return nil
}

func copyFile(ctx context.Context, src, dest string) error {
	in, err := os.Open(src) //#nosec G304 -- src is a file in the download directory
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*"+domain.PartSuffix)
	if err != nil {
		return err
	}

	_, err = io.Copy(tmp, &ctxReader{ctx: ctx, r: in})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dest)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Stat returns the size and modification time of the mirrored file.
func (s *LocalStorage) Stat(_ context.Context, key string) (output.StorageObject, bool, error) {
	info, err := os.Stat(s.FullPath(key))
	if os.IsNotExist(err) {
		return output.StorageObject{}, false, nil
	}
	if err != nil {
		return output.StorageObject{}, false, &domain.StorageError{Operation: "stat", Key: key, Err: err}
	}
	return output.StorageObject{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime().Unix(),
	}, true, nil
}

// FullPath returns the full path for a key.
func (s *LocalStorage) FullPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// String describes the target for status output.
func (s *LocalStorage) String() string {
	return "local:" + s.basePath
}
