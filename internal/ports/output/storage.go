// Package output defines the secondary/driven ports of the application.
package output

import "context"

// ObjectStorage defines the secondary port for the mirror target.
type ObjectStorage interface {
	// List returns all objects under the configured prefix.
	List(ctx context.Context) ([]StorageObject, error)

	// Upload copies the local file at src to key.
	Upload(ctx context.Context, key string, src string) error

	// Stat returns the object stored at key. found is false when there is
	// no such object.
	Stat(ctx context.Context, key string) (obj StorageObject, found bool, err error)
}

// StorageObject represents a file in object storage.
type StorageObject struct {
	Key          string // Object key/path
	Size         int64  // Size in bytes
	LastModified int64  // Unix timestamp
	ETag         string // Content hash
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeAzure StorageType = "azure"
	StorageTypeLocal StorageType = "local"
)
