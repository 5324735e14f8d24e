package output

import (
	"context"

	"github.com/jobrunner/granula/internal/domain"
)

// GranuleCatalog defines the secondary port for granule metadata search.
type GranuleCatalog interface {
	// Search returns every granule matching params, following pagination
	// until all hits are accumulated.
	Search(ctx context.Context, params domain.SearchParams) (*domain.ResultSet, error)
}

// CredentialSource resolves login credentials for an authentication realm.
type CredentialSource interface {
	// Lookup returns credentials for realm or domain.ErrCredentialsNotFound.
	Lookup(ctx context.Context, realm string) (domain.Credentials, error)
}
