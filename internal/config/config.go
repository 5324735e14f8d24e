// Package config provides configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobrunner/granula/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Earthdata EarthdataConfig `mapstructure:"earthdata"`
	CMR       CMRConfig       `mapstructure:"cmr"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Download  DownloadConfig  `mapstructure:"download"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// EarthdataConfig holds login realm settings.
type EarthdataConfig struct {
	Realm  string `mapstructure:"realm"`
	Netrc  string `mapstructure:"netrc"`  // empty: $NETRC or the per-user default
	Prompt bool   `mapstructure:"prompt"` // ask on the terminal when netrc has no entry
}

// CMRConfig holds granule search settings.
type CMRConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	PageSize int    `mapstructure:"page_size"`
	Provider string `mapstructure:"provider"`
}

// HTTPConfig holds settings of the shared HTTP session.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"` // 0 disables the client timeout
	UserAgent string        `mapstructure:"user_agent"`
}

// DownloadConfig holds download settings.
type DownloadConfig struct {
	Dir       string `mapstructure:"dir"`
	Workers   int    `mapstructure:"workers"`
	ChunkSize int    `mapstructure:"chunk_size"`
	Force     bool   `mapstructure:"force"`
	Progress  bool   `mapstructure:"progress"`
}

// LedgerConfig holds download history settings.
type LedgerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// StorageConfig holds mirror target configuration.
type StorageConfig struct {
	Type      string      `mapstructure:"type"` // s3, azure, local
	LocalPath string      `mapstructure:"local_path"`
	S3        S3Config    `mapstructure:"s3"`
	Azure     AzureConfig `mapstructure:"azure"`
}

// S3Config holds AWS S3 configuration.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string `mapstructure:"container"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
	Prefix           string `mapstructure:"prefix"`
}

// MirrorConfig holds mirror behaviour settings.
type MirrorConfig struct {
	SyncInterval     time.Duration `mapstructure:"sync_interval"` // 0 disables periodic syncs
	DebounceDuration time.Duration `mapstructure:"debounce_duration"`
}

// ServerConfig holds status server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TLS             TLSConfig     `mapstructure:"tls"`
}

// TLSConfig holds CertMagic settings for the status server.
type TLSConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Domains  []string       `mapstructure:"domains"`
	Email    string         `mapstructure:"email"`
	CacheDir string         `mapstructure:"cache_dir"`
	Staging  bool           `mapstructure:"staging"` // Use Let's Encrypt staging
	AzureDNS AzureDNSConfig `mapstructure:"azure_dns"`
}

// AzureDNSConfig holds Azure DNS settings for DNS-01 challenges.
type AzureDNSConfig struct {
	SubscriptionID    string `mapstructure:"subscription_id"`
	ResourceGroupName string `mapstructure:"resource_group_name"`
	ClientID          string `mapstructure:"client_id"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Textfile  string `mapstructure:"textfile"` // written after batch commands when set
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Defaults sets the default configuration values.
func Defaults() {
	// Earthdata defaults
	viper.SetDefault("earthdata.realm", "urs.earthdata.nasa.gov")
	viper.SetDefault("earthdata.netrc", "")
	viper.SetDefault("earthdata.prompt", true)

	// CMR defaults
	viper.SetDefault("cmr.endpoint", "https://cmr.earthdata.nasa.gov/search/granules.csv")
	viper.SetDefault("cmr.page_size", 2000)
	viper.SetDefault("cmr.provider", "POCLOUD")

	// HTTP defaults
	viper.SetDefault("http.timeout", time.Duration(0))
	viper.SetDefault("http.user_agent", "granula")

	// Download defaults
	viper.SetDefault("download.dir", ".")
	viper.SetDefault("download.workers", 3)
	viper.SetDefault("download.chunk_size", 1024)
	viper.SetDefault("download.force", false)
	viper.SetDefault("download.progress", true)

	// Ledger defaults
	viper.SetDefault("ledger.enabled", false)
	viper.SetDefault("ledger.path", "./granula.db")

	// Storage defaults
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_path", "../granula-mirror")

	// Mirror defaults
	viper.SetDefault("mirror.sync_interval", time.Duration(0))
	viper.SetDefault("mirror.debounce_duration", 2*time.Second)

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 5*time.Minute)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.tls.enabled", false)
	viper.SetDefault("server.tls.cache_dir", "./.certmagic")
	viper.SetDefault("server.tls.staging", false)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.namespace", "granula")
	viper.SetDefault("metrics.textfile", "")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// Load loads configuration from environment and config file.
func Load(configPath string) (*Config, error) {
	Defaults()

	// Environment variable binding
	viper.SetEnvPrefix("GRANULA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/granula")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Earthdata.Realm == "" {
		return &domain.ConfigError{Field: "earthdata.realm", Message: "is required"}
	}
	if c.CMR.Endpoint == "" {
		return &domain.ConfigError{Field: "cmr.endpoint", Message: "is required"}
	}
	if c.CMR.PageSize < 1 || c.CMR.PageSize > 2000 {
		return &domain.ConfigError{Field: "cmr.page_size", Message: fmt.Sprintf("must be between 1 and 2000, got %d", c.CMR.PageSize)}
	}
	if c.HTTP.Timeout < 0 {
		return &domain.ConfigError{Field: "http.timeout", Message: "must not be negative"}
	}
	if c.Download.Workers < 1 {
		return &domain.ConfigError{Field: "download.workers", Message: fmt.Sprintf("must be at least 1, got %d", c.Download.Workers)}
	}
	if c.Download.ChunkSize < 1 {
		return &domain.ConfigError{Field: "download.chunk_size", Message: fmt.Sprintf("must be at least 1, got %d", c.Download.ChunkSize)}
	}
	if c.Ledger.Enabled && c.Ledger.Path == "" {
		return &domain.ConfigError{Field: "ledger.path", Message: "is required when the ledger is enabled"}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &domain.ConfigError{Field: "server.port", Message: fmt.Sprintf("invalid port %d", c.Server.Port)}
	}
	if c.Server.TLS.Enabled {
		if len(c.Server.TLS.Domains) == 0 {
			return &domain.ConfigError{Field: "server.tls.domains", Message: "TLS enabled but no domains specified"}
		}
		if c.Server.TLS.Email == "" {
			return &domain.ConfigError{Field: "server.tls.email", Message: "TLS enabled but no email specified"}
		}
	}
	if c.Mirror.SyncInterval < 0 {
		return &domain.ConfigError{Field: "mirror.sync_interval", Message: "must not be negative"}
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return &domain.ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}

	return c.Storage.Validate()
}

// Validate checks the fields required by the selected storage type.
func (s *StorageConfig) Validate() error {
	switch s.Type {
	case "local":
		if s.LocalPath == "" {
			return &domain.ConfigError{Field: "storage.local_path", Message: "local storage path is required"}
		}
	case "s3":
		if s.S3.Bucket == "" {
			return &domain.ConfigError{Field: "storage.s3.bucket", Message: "S3 bucket is required"}
		}
		if s.S3.Region == "" {
			return &domain.ConfigError{Field: "storage.s3.region", Message: "S3 region is required"}
		}
	case "azure":
		if s.Azure.Container == "" {
			return &domain.ConfigError{Field: "storage.azure.container", Message: "azure container is required"}
		}
		if s.Azure.AccountName == "" && s.Azure.ConnectionString == "" {
			return &domain.ConfigError{Field: "storage.azure.account_name", Message: "azure account name or connection string is required"}
		}
	default:
		return &domain.ConfigError{
			Field:   "storage.type",
			Message: fmt.Sprintf("unknown storage type %q", s.Type),
			Err:     domain.ErrUnsupportedStorage,
		}
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
