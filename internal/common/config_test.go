package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", config.Server.Port)
	}
	if config.Storage.Address != "ws://localhost:8000/rpc" {
		t.Errorf("unexpected default storage address %q", config.Storage.Address)
	}
	if config.Oracle.Model == "" {
		t.Error("default oracle model must be set")
	}
	if config.Oracle.GetTimeout() != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %v", config.Oracle.GetTimeout())
	}
	if config.Auth.GetTokenExpiry() != 24*time.Hour {
		t.Errorf("expected default token expiry 24h, got %v", config.Auth.GetTokenExpiry())
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.toml")
	content := `
environment = "production"

[server]
port = 9090

[oracle]
api_key = "test-key"
model = "gemini-2.5-pro"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", config.Server.Port)
	}
	if config.Oracle.Model != "gemini-2.5-pro" {
		t.Errorf("expected model override, got %q", config.Oracle.Model)
	}
	// Untouched sections keep defaults.
	if config.Storage.Namespace != "folio" {
		t.Errorf("expected default namespace, got %q", config.Storage.Namespace)
	}
	if !config.IsProduction() {
		t.Error("environment = production must be detected")
	}
}

func TestLoadConfig_MissingFileTolerated(t *testing.T) {
	config, err := LoadConfig("/nonexistent/folio.toml")
	if err != nil {
		t.Fatalf("missing config file must not be fatal: %v", err)
	}
	if config.Server.Port != 8080 {
		t.Errorf("expected defaults, got port %d", config.Server.Port)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_PORT", "7070")
	t.Setenv("FOLIO_LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "env-key")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Server.Port != 7070 {
		t.Errorf("expected env port 7070, got %d", config.Server.Port)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected env log level, got %q", config.Logging.Level)
	}
	if config.Oracle.APIKey != "env-key" {
		t.Errorf("expected API key from environment, got %q", config.Oracle.APIKey)
	}
}

func TestLoadConfig_FolioKeyWinsOverConventionalNames(t *testing.T) {
	t.Setenv("FOLIO_GEMINI_API_KEY", "folio-key")
	t.Setenv("GEMINI_API_KEY", "generic-key")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Oracle.APIKey != "folio-key" {
		t.Errorf("FOLIO-prefixed key must win, got %q", config.Oracle.APIKey)
	}
}

func TestValidate_MissingAPIKeyIsFatal(t *testing.T) {
	config := NewDefaultConfig()
	config.Oracle.APIKey = ""
	if err := config.Validate(); err == nil {
		t.Error("missing oracle API key must fail validation")
	}

	config.Oracle.APIKey = "  "
	if err := config.Validate(); err == nil {
		t.Error("whitespace-only API key must fail validation")
	}

	config.Oracle.APIKey = "real-key"
	if err := config.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidate_PortRange(t *testing.T) {
	config := NewDefaultConfig()
	config.Oracle.APIKey = "key"

	for _, port := range []int{0, -1, 70000} {
		config.Server.Port = port
		if err := config.Validate(); err == nil {
			t.Errorf("port %d must fail validation", port)
		}
	}
}
