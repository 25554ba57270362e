package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for chemref-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (session keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8480"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Baseline dataset source
	Dataset DatasetConfig `yaml:"dataset"`

	// Embedded storage
	Storage StorageConfig `yaml:"storage"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Session cookie configuration
	Session SessionConfig `yaml:"session"`
}

// DatasetConfig describes where the baseline chemical dataset comes from.
// Retrieval order: local snapshot file if set, else remote fetch if a base
// URL is set, else the bundled snapshot. Fetch failure always falls back to
// the bundled snapshot.
type DatasetConfig struct {
	// BaseURL is the remote dataset location; chemical_data.json is
	// appended to it.
	BaseURL string `yaml:"base_url" env:"DATASET_BASE_URL" env-default:""`

	// SnapshotPath points at a local dataset file that overrides remote
	// fetching. When set, the file is watched and reloaded on change.
	SnapshotPath string `yaml:"snapshot_path" env:"DATASET_SNAPSHOT_PATH" env-default:""`

	// FetchTimeoutSeconds bounds the remote fetch before falling back.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" env:"DATASET_FETCH_TIMEOUT_SECONDS" env-default:"10"`
}

// FetchTimeout returns the fetch timeout as a duration.
func (d *DatasetConfig) FetchTimeout() time.Duration {
	if d.FetchTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.FetchTimeoutSeconds) * time.Second
}

// StorageConfig holds embedded SQLite storage settings.
type StorageConfig struct {
	// SQLitePath is the catalog database file, created on first start.
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"./chemref.db"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an auth provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// SessionConfig holds profile session cookie settings.
type SessionConfig struct {
	// Key signs session cookies. Secret - environment only.
	Key string `yaml:"-" env:"SESSION_KEY" env-default:"chemref-dev-session-key"`

	// CookieName is the session cookie name.
	CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"chemref_session"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}
