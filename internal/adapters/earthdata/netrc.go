// Package earthdata resolves NASA Earthdata Login credentials and builds an
// authenticated HTTP session for them.
package earthdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jdx/go-netrc"

	"github.com/jobrunner/granula/internal/domain"
	"github.com/jobrunner/granula/internal/ports/output"
)

// DefaultRealm is the Earthdata Login host.
const DefaultRealm = "urs.earthdata.nasa.gov"

// NetrcSource reads credentials from a netrc file.
type NetrcSource struct {
	path string
}

// NewNetrcSource creates a netrc source. An empty path selects the per-user
// default (~/.netrc, or ~/_netrc on Windows).
func NewNetrcSource(path string) *NetrcSource {
	if path == "" {
		path = DefaultNetrcPath()
	}
	return &NetrcSource{path: path}
}

// DefaultNetrcPath returns the conventional netrc location for this user.
func DefaultNetrcPath() string {
	if p := os.Getenv("NETRC"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	name := ".netrc"
	if runtime.GOOS == "windows" {
		name = "_netrc"
	}
	return filepath.Join(home, name)
}

// Path returns the file this source reads.
func (s *NetrcSource) Path() string {
	return s.path
}

// Lookup returns the login and password of the machine entry for realm.
// A missing or unreadable file and a missing entry all yield
// domain.ErrCredentialsNotFound.
func (s *NetrcSource) Lookup(_ context.Context, realm string) (domain.Credentials, error) {
	if s.path == "" {
		return domain.Credentials{}, fmt.Errorf("%w: no netrc path", domain.ErrCredentialsNotFound)
	}

	n, err := netrc.Parse(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Credentials{}, fmt.Errorf("%w: %s does not exist", domain.ErrCredentialsNotFound, s.path)
		}
		return domain.Credentials{}, fmt.Errorf("%w: parsing %s: %v", domain.ErrCredentialsNotFound, s.path, err)
	}

	m := n.Machine(realm)
	if m == nil || m.Get("login") == "" {
		return domain.Credentials{}, fmt.Errorf("%w: no entry for %s in %s", domain.ErrCredentialsNotFound, realm, s.path)
	}

	return domain.Credentials{
		Username: m.Get("login"),
		Password: m.Get("password"),
	}, nil
}

// Resolve tries each source in order and returns the first credentials found.
// domain.ErrCredentialsNotFound from a source falls through to the next one;
// any other error aborts.
func Resolve(ctx context.Context, realm string, sources ...output.CredentialSource) (domain.Credentials, error) {
	for _, src := range sources {
		creds, err := src.Lookup(ctx, realm)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, domain.ErrCredentialsNotFound) {
			return domain.Credentials{}, err
		}
	}
	return domain.Credentials{}, fmt.Errorf("%w for %s", domain.ErrCredentialsNotFound, realm)
}
