package tls

import (
	"io"
	"log/slog"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Domains: []string{"mirror.example.org"}, Email: "ops@example.org"}, false},
		{"no domains", Config{Email: "ops@example.org"}, true},
		{"no email", Config{Domains: []string{"mirror.example.org"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTLSConfigRejectsInvalid(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewTLSConfig(Config{}, logger); err == nil {
		t.Error("NewTLSConfig() expected error without domains")
	}
}

func TestAzureDNSEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  AzureDNSConfig
		want bool
	}{
		{"empty", AzureDNSConfig{}, false},
		{"subscription only", AzureDNSConfig{SubscriptionID: "sub"}, false},
		{"complete", AzureDNSConfig{SubscriptionID: "sub", ResourceGroupName: "dns"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
