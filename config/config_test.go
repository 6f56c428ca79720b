package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scribefox/creditgate/config"
)

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "creditgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090

generator:
  url: "http://localhost:3000"
  api_key: "sk-test"
  timeout: 15s

database:
  driver: "sqlite"
  dsn: ":memory:"

logging:
  level: "debug"
  format: "console"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Generator.URL != "http://localhost:3000" {
		t.Errorf("Generator.URL = %s, want http://localhost:3000", cfg.Generator.URL)
	}
	if cfg.Generator.APIKey != "sk-test" {
		t.Errorf("Generator.APIKey = %s, want sk-test", cfg.Generator.APIKey)
	}
	if cfg.Generator.Timeout != 15*time.Second {
		t.Errorf("Generator.Timeout = %v, want 15s", cfg.Generator.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
generator:
  url: "http://localhost:3000"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Generator.Timeout != 60*time.Second {
		t.Errorf("default Generator.Timeout = %v, want 60s", cfg.Generator.Timeout)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "creditgate.db" {
		t.Errorf("default Database.DSN = %s, want creditgate.db", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("default Logging.Format = %s, want json", cfg.Logging.Format)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}
}

func TestLoad_MissingGeneratorURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creditgate.yaml")
	os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600)

	if _, err := config.Load(path); err == nil {
		t.Error("expected error when generator.url is missing")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creditgate.yaml")
	os.WriteFile(path, []byte("generator:\n  url: http://x\nserver:\n  port: 99999\n"), 0o600)

	if _, err := config.Load(path); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creditgate.yaml")
	os.WriteFile(path, []byte("generator:\n  url: http://x\nlogging:\n  level: loud\n"), 0o600)

	if _, err := config.Load(path); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CREDITGATE_SERVER_PORT", "9999")
	t.Setenv("CREDITGATE_GENERATOR_URL", "http://override:4000")
	t.Setenv("CREDITGATE_LOG_LEVEL", "warn")

	cfg := writeAndLoad(t, "generator:\n  url: http://file:3000\n")

	if cfg.Server.Port != 9999 {
		t.Errorf("env override Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Generator.URL != "http://override:4000" {
		t.Errorf("env must beat file: Generator.URL = %s", cfg.Generator.URL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env override Logging.Level = %s, want warn", cfg.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CREDITGATE_GENERATOR_URL", "http://env-only:3000")
	t.Setenv("CREDITGATE_DATABASE_DSN", "/tmp/test.db")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if cfg.Generator.URL != "http://env-only:3000" {
		t.Errorf("Generator.URL = %s", cfg.Generator.URL)
	}
	if cfg.Database.DSN != "/tmp/test.db" {
		t.Errorf("Database.DSN = %s", cfg.Database.DSN)
	}
}

func TestHasEnvConfig(t *testing.T) {
	t.Setenv("CREDITGATE_GENERATOR_URL", "")
	if config.HasEnvConfig() {
		t.Error("expected false with no env config")
	}

	t.Setenv("CREDITGATE_GENERATOR_URL", "http://x")
	if !config.HasEnvConfig() {
		t.Error("expected true with CREDITGATE_GENERATOR_URL set")
	}
}

func TestLoadWithFallback_NoConfigAnywhere(t *testing.T) {
	t.Setenv("CREDITGATE_GENERATOR_URL", "")

	if _, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error with no file and no env")
	}
}
