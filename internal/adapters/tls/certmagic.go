// Package tls provides ACME certificates for the status server using CertMagic.
package tls

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/caddyserver/certmagic"
	"github.com/libdns/azure"
)

// Config holds ACME settings.
type Config struct {
	Domains  []string
	Email    string
	CacheDir string
	Staging  bool // Use Let's Encrypt staging environment
	AzureDNS AzureDNSConfig
}

// AzureDNSConfig selects the DNS-01 challenge through Azure DNS. Without it
// the HTTP-01 and TLS-ALPN-01 challenges are used, which need the server to
// be reachable on ports 80 and 443.
type AzureDNSConfig struct {
	SubscriptionID    string
	ResourceGroupName string
	ClientID          string // User Assigned Managed Identity client ID (optional)
}

// Enabled reports whether the DNS-01 solver is configured.
func (c AzureDNSConfig) Enabled() bool {
	return c.SubscriptionID != "" && c.ResourceGroupName != ""
}

// Validate checks the settings needed to request certificates.
func (c Config) Validate() error {
	if len(c.Domains) == 0 {
		return fmt.Errorf("TLS enabled but no domains specified")
	}
	if c.Email == "" {
		return fmt.Errorf("TLS enabled but no email specified")
	}
	return nil
}

// NewTLSConfig obtains certificates for the configured domains and returns a
// tls.Config that keeps them renewed. It blocks until the first certificates
// are available.
func NewTLSConfig(cfg Config, logger *slog.Logger) (*tls.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = cfg.Email

	if cfg.Staging {
		certmagic.DefaultACME.CA = certmagic.LetsEncryptStagingCA
	}

	if cfg.CacheDir != "" {
		certmagic.Default.Storage = &certmagic.FileStorage{Path: cfg.CacheDir}
	}

	if cfg.AzureDNS.Enabled() {
		provider := &azure.Provider{
			SubscriptionId:    cfg.AzureDNS.SubscriptionID,
			ResourceGroupName: cfg.AzureDNS.ResourceGroupName,
			ClientId:          cfg.AzureDNS.ClientID, // Empty = System Assigned Managed Identity
		}
		certmagic.DefaultACME.DNS01Solver = &certmagic.DNS01Solver{
			DNSManager: certmagic.DNSManager{
				DNSProvider: provider,
			},
		}
	}

	logger.Info("obtaining certificates",
		"domains", cfg.Domains,
		"staging", cfg.Staging,
		"dns01", cfg.AzureDNS.Enabled(),
	)

	tlsConfig, err := certmagic.TLS(cfg.Domains)
	if err != nil {
		return nil, fmt.Errorf("configuring TLS: %w", err)
	}

	return tlsConfig, nil
}
