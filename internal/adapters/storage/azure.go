package storage

import (
	"context"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// AzureStorage implements ObjectStorage for Azure Blob Storage.
type AzureStorage struct {
	client    *azblob.Client
	container string
	prefix    string
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string
	AccountName      string
	AccountKey       string
	ConnectionString string
	Prefix           string
}

// NewAzureStorage creates a new Azure Blob Storage adapter.
func NewAzureStorage(cfg AzureConfig) (*AzureStorage, error) {
	var client *azblob.Client

	if cfg.ConnectionString != "" {
		c, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, err
		}
		client = c
	} else {
		url := "https://" + cfg.AccountName + ".blob.core.windows.net/"
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, err
		}
		c, err := azblob.NewClientWithSharedKeyCredential(url, cred, nil)
		if err != nil {
			return nil, err
		}
		client = c
	}

	return &AzureStorage{
		client:    client,
		container: cfg.Container,
		prefix:    strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// List returns all blobs under the prefix.
func (s *AzureStorage) List(ctx context.Context) ([]output.StorageObject, error) {
	var objects []output.StorageObject

	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, &domain.StorageError{Operation: "list", Err: err}
		}

		for _, blob := range page.Segment.BlobItems {
			objects = append(objects, s.blobToStorageObject(blob))
		}
	}

	return objects, nil
}

// blobToStorageObject converts an Azure blob to a StorageObject.
func (s *AzureStorage) blobToStorageObject(blob *container.BlobItem) output.StorageObject {
	relKey := strings.TrimPrefix(*blob.Name, s.prefix)
	relKey = strings.TrimPrefix(relKey, "/")

	obj := output.StorageObject{Key: relKey}
	if p := blob.Properties; p != nil {
		if p.ContentLength != nil {
			obj.Size = *p.ContentLength
		}
		if p.LastModified != nil {
			obj.LastModified = p.LastModified.Unix()
		}
		if p.ETag != nil {
			obj.ETag = string(*p.ETag)
		}
	}
	return obj
}

// Upload uploads the local file src as blob key.
func (s *AzureStorage) Upload(ctx context.Context, key string, src string) error {
	f, err := os.Open(src) //#nosec G304 -- src is a file in the download directory
	if err != nil {
		return &domain.StorageError{Operation: "upload", Key: key, Err: err}
	}
	defer func() { _ = f.Close() }()

	if _, err := s.client.UploadFile(ctx, s.container, s.fullKey(key), f, nil); err != nil {
		return &domain.StorageError{Operation: "upload", Key: key, Err: err}
	}
	return nil
}

// Stat returns the blob properties.
func (s *AzureStorage) Stat(ctx context.Context, key string) (output.StorageObject, bool, error) {
	blob := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(s.fullKey(key))
	props, err := blob.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return output.StorageObject{}, false, nil
		}
		return output.StorageObject{}, false, &domain.StorageError{Operation: "stat", Key: key, Err: err}
	}

	obj := output.StorageObject{Key: key}
	if props.ContentLength != nil {
		obj.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		obj.LastModified = props.LastModified.Unix()
	}
	if props.ETag != nil {
		obj.ETag = string(*props.ETag)
	}
	return obj, true, nil
}

// String describes the target for status output.
func (s *AzureStorage) String() string {
	return "azure://" + s.container + "/" + s.prefix
}

// fullKey returns the full blob name including prefix.
func (s *AzureStorage) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}
