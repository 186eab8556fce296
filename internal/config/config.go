// ABOUTME: Configuration loading and parsing for kyc-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete kyc-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Audit     AuditConfig     `yaml:"audit"`
	Providers ProvidersConfig `yaml:"providers"`
	Polling   PollingConfig   `yaml:"polling"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds authentication configuration.
// An empty shared secret runs the endpoint in insecure mode.
type AuthConfig struct {
	SharedSecret string `yaml:"shared_secret"`
}

// AuditConfig holds the invocation audit log configuration
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ProvidersConfig holds configuration for all external data providers
type ProvidersConfig struct {
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`

	Records   RecordsConfig   `yaml:"records"`
	Documents DocumentsConfig `yaml:"documents"`
	Registry  RegistryConfig  `yaml:"registry"`
	Screening ScreeningConfig `yaml:"screening"`
}

// RecordsConfig holds the record store and its identity provider
type RecordsConfig struct {
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Scope        string `yaml:"scope"`
}

// DocumentsConfig holds the document-analysis provider configuration
type DocumentsConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// RegistryConfig holds the public entity registry configuration.
// Optional: when no base URL is set, the registry check reports Skipped.
type RegistryConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ScreeningConfig holds the adverse-signal screening provider configuration.
// Optional: when no base URL is set, the screening check reports Skipped.
type ScreeningConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// PollingConfig holds async operation polling configuration
type PollingConfig struct {
	Interval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	IntervalRaw string `yaml:"interval"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Providers.Records.BaseURL == "" {
		return fmt.Errorf("providers.records.base_url is required")
	}
	if c.Providers.Records.TokenURL == "" {
		return fmt.Errorf("providers.records.token_url is required")
	}
	if c.Providers.Documents.BaseURL == "" {
		return fmt.Errorf("providers.documents.base_url is required")
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}

	if c.Polling.MaxAttempts < 0 {
		return fmt.Errorf("polling.max_attempts must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Providers.TimeoutRaw != "" {
		cfg.Providers.Timeout, err = time.ParseDuration(cfg.Providers.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing providers.timeout %q: %w", cfg.Providers.TimeoutRaw, err)
		}
	}

	if cfg.Polling.IntervalRaw != "" {
		cfg.Polling.Interval, err = time.ParseDuration(cfg.Polling.IntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing polling.interval %q: %w", cfg.Polling.IntervalRaw, err)
		}
	}

	return nil
}
