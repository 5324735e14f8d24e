package earthdata

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/jobrunner/granula/internal/domain"
)

// SessionOptions configures the authenticated HTTP client.
type SessionOptions struct {
	Timeout   time.Duration     // Whole-request timeout; 0 means none
	UserAgent string            // User-Agent header; empty keeps Go's default
	Transport http.RoundTripper // Base transport; nil uses http.DefaultTransport
}

// NewSession returns an HTTP client that sends Basic credentials to realm
// and keeps cookies across requests. Data hosts redirect to the login realm
// and back, so the cookie jar carries the session between them.
// The client is safe for concurrent use.
func NewSession(realm string, creds domain.Credentials, opts SessionOptions) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Jar:     jar,
		Timeout: opts.Timeout,
		Transport: &realmTransport{
			base:      base,
			realm:     realm,
			creds:     creds,
			userAgent: opts.UserAgent,
		},
	}, nil
}

// realmTransport adds Basic auth to requests for the realm host. It runs
// for every redirect hop, so a hop that lands on the realm is authenticated
// even though the client strips Authorization on cross-host redirects.
type realmTransport struct {
	base      http.RoundTripper
	realm     string
	creds     domain.Credentials
	userAgent string
}

func (t *realmTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	needsAuth := !t.creds.IsEmpty() && t.matches(req) && req.Header.Get("Authorization") == ""
	needsUA := t.userAgent != "" && req.Header.Get("User-Agent") == ""
	if !needsAuth && !needsUA {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	if needsAuth {
		r.SetBasicAuth(t.creds.Username, t.creds.Password)
	}
	if needsUA {
		r.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(r)
}

func (t *realmTransport) matches(req *http.Request) bool {
	return req.URL.Host == t.realm || req.URL.Hostname() == t.realm
}
