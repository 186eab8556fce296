// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

auth:
  shared_secret: "abc123"

audit:
  enabled: true
  path: "./audit.db"

providers:
  timeout: "20s"
  records:
    base_url: "https://records.example.com"
    token_url: "https://id.example.com/token"
    client_id: "gateway"
    client_secret: "s3cret"
    scope: "cases:rw"
  documents:
    base_url: "https://docs.example.com"
    api_key: "doc-key"
  registry:
    base_url: "https://registry.example.com"
  screening:
    base_url: "https://screen.example.com"
    api_key: "screen-key"

polling:
  interval: "2s"
  max_attempts: 15

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify server config
	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}

	// Verify auth config
	if cfg.Auth.SharedSecret != "abc123" {
		t.Errorf("Auth.SharedSecret = %q, want %q", cfg.Auth.SharedSecret, "abc123")
	}

	// Verify audit config
	if !cfg.Audit.Enabled {
		t.Error("Audit.Enabled = false, want true")
	}
	if cfg.Audit.Path != "./audit.db" {
		t.Errorf("Audit.Path = %q, want %q", cfg.Audit.Path, "./audit.db")
	}

	// Verify provider config with duration parsing
	if cfg.Providers.Timeout != 20*time.Second {
		t.Errorf("Providers.Timeout = %v, want %v", cfg.Providers.Timeout, 20*time.Second)
	}
	if cfg.Providers.Records.BaseURL != "https://records.example.com" {
		t.Errorf("Providers.Records.BaseURL = %q, want %q", cfg.Providers.Records.BaseURL, "https://records.example.com")
	}
	if cfg.Providers.Records.ClientSecret != "s3cret" {
		t.Errorf("Providers.Records.ClientSecret = %q, want %q", cfg.Providers.Records.ClientSecret, "s3cret")
	}
	if cfg.Providers.Documents.APIKey != "doc-key" {
		t.Errorf("Providers.Documents.APIKey = %q, want %q", cfg.Providers.Documents.APIKey, "doc-key")
	}
	if cfg.Providers.Registry.BaseURL != "https://registry.example.com" {
		t.Errorf("Providers.Registry.BaseURL = %q, want %q", cfg.Providers.Registry.BaseURL, "https://registry.example.com")
	}

	// Verify polling config
	if cfg.Polling.Interval != 2*time.Second {
		t.Errorf("Polling.Interval = %v, want %v", cfg.Polling.Interval, 2*time.Second)
	}
	if cfg.Polling.MaxAttempts != 15 {
		t.Errorf("Polling.MaxAttempts = %d, want 15", cfg.Polling.MaxAttempts)
	}

	// Verify logging config
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_SHARED_SECRET", "from-env")
	t.Setenv("TEST_CLIENT_SECRET", "cs-from-env")

	configPath := writeConfig(t, `
server:
  http_addr: ":8080"

auth:
  shared_secret: "${TEST_SHARED_SECRET}"

providers:
  records:
    base_url: "https://records.example.com"
    token_url: "https://id.example.com/token"
    client_secret: "${TEST_CLIENT_SECRET}"
  documents:
    base_url: "https://docs.example.com"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SharedSecret != "from-env" {
		t.Errorf("Auth.SharedSecret = %q, want %q", cfg.Auth.SharedSecret, "from-env")
	}
	if cfg.Providers.Records.ClientSecret != "cs-from-env" {
		t.Errorf("Providers.Records.ClientSecret = %q, want %q", cfg.Providers.Records.ClientSecret, "cs-from-env")
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"

auth:
  shared_secret: "${DEFINITELY_NOT_SET_ANYWHERE}"

providers:
  records:
    base_url: "https://records.example.com"
    token_url: "https://id.example.com/token"
  documents:
    base_url: "https://docs.example.com"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.SharedSecret != "" {
		t.Errorf("Auth.SharedSecret = %q, want empty", cfg.Auth.SharedSecret)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("error = %v, want reading config file error", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "server: [not: valid")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing config file error", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"

providers:
  records:
    base_url: "https://records.example.com"
    token_url: "https://id.example.com/token"
  documents:
    base_url: "https://docs.example.com"

polling:
  interval: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "polling.interval") {
		t.Errorf("error = %v, want polling.interval error", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{HTTPAddr: ":8080"},
			Providers: ProvidersConfig{
				Records: RecordsConfig{
					BaseURL:  "https://records.example.com",
					TokenURL: "https://id.example.com/token",
				},
				Documents: DocumentsConfig{BaseURL: "https://docs.example.com"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing http addr", func(c *Config) { c.Server.HTTPAddr = "" }, "server.http_addr"},
		{"missing records base url", func(c *Config) { c.Providers.Records.BaseURL = "" }, "providers.records.base_url"},
		{"missing token url", func(c *Config) { c.Providers.Records.TokenURL = "" }, "providers.records.token_url"},
		{"missing documents base url", func(c *Config) { c.Providers.Documents.BaseURL = "" }, "providers.documents.base_url"},
		{"audit enabled without path", func(c *Config) { c.Audit.Enabled = true }, "audit.path"},
		{"negative max attempts", func(c *Config) { c.Polling.MaxAttempts = -1 }, "polling.max_attempts"},
		{"optional registry and screening", func(c *Config) {
			c.Providers.Registry = RegistryConfig{}
			c.Providers.Screening = ScreeningConfig{}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
