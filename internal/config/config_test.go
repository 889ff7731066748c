package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"ASSAY_PORT", "ASSAY_METRICS_PORT", "ASSAY_ADMIN_TOKEN", "ASSAY_RATE_LIMIT_PER_MINUTE",
	"ASSAY_DATABASE_DRIVER", "ASSAY_DATABASE_URL", "ASSAY_MIGRATE_ON_START", "ASSAY_HERMES_URL",
	"ASSAY_DIRECTORY_URL", "ASSAY_DIRECTORY_TOKEN", "ASSAY_JANITOR_ENABLED", "ASSAY_JANITOR_INTERVAL_MS",
	"ASSAY_STRICT_WEIGHTS", "ASSAY_LOG_LEVEL", "ASSAY_LOG_FORMAT",
	"ASSAY_HERMES_STREAM", "ASSAY_HERMES_MAX_AGE_HOURS", "ASSAY_HERMES_REPLICAS", "ASSAY_HERMES_STORAGE",
}

func clearEnv(t *testing.T) {
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RateLimitPerMinute != 300 {
		t.Errorf("expected rate limit 300, got %d", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.Database.Driver)
	}
	if !cfg.Database.MigrateOnStart {
		t.Error("expected migrate_on_start by default")
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if stream := cfg.HermesStream(); stream.Name != "ASSAY_EVENTS" || stream.MaxAge != 720*time.Hour || stream.Storage != "file" {
		t.Errorf("unexpected stream defaults %+v", stream)
	}
	if cfg.Directory.URL != "" {
		t.Errorf("expected directory disabled, got %s", cfg.Directory.URL)
	}
	if cfg.Scoring.StrictWeights {
		t.Error("expected strict weights off by default")
	}
	if len(cfg.Modules) != 3 {
		t.Fatalf("expected 3 module profiles, got %d", len(cfg.Modules))
	}
	if cfg.Modules[2].AlternativePath == "" {
		t.Error("expected strategy profile to label alternatives")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.JanitorInterval() != 10*time.Minute {
		t.Errorf("expected janitor interval 10m, got %v", cfg.JanitorInterval())
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSAY_PORT", "9000")
	t.Setenv("ASSAY_METRICS_PORT", "9001")
	t.Setenv("ASSAY_ADMIN_TOKEN", "secret-token")
	t.Setenv("ASSAY_DATABASE_DRIVER", "sqlite")
	t.Setenv("ASSAY_DATABASE_URL", "/var/lib/assay.db")
	t.Setenv("ASSAY_MIGRATE_ON_START", "false")
	t.Setenv("ASSAY_DIRECTORY_URL", "http://modules:8080")
	t.Setenv("ASSAY_DIRECTORY_TOKEN", "dir-secret")
	t.Setenv("ASSAY_JANITOR_INTERVAL_MS", "1500")
	t.Setenv("ASSAY_STRICT_WEIGHTS", "true")
	t.Setenv("ASSAY_LOG_LEVEL", "debug")
	t.Setenv("ASSAY_HERMES_STREAM", "ASSAY_STAGING")
	t.Setenv("ASSAY_HERMES_MAX_AGE_HOURS", "24")
	t.Setenv("ASSAY_HERMES_REPLICAS", "3")
	t.Setenv("ASSAY_HERMES_STORAGE", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.MetricsPort != 9001 {
		t.Errorf("unexpected ports %d/%d", cfg.Server.Port, cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.URL != "/var/lib/assay.db" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.Database.MigrateOnStart {
		t.Error("expected migrate_on_start disabled")
	}
	if cfg.Directory.URL != "http://modules:8080" || cfg.Directory.Token != "dir-secret" {
		t.Errorf("unexpected directory config %+v", cfg.Directory)
	}
	if cfg.JanitorInterval() != 1500*time.Millisecond {
		t.Errorf("expected janitor interval 1.5s, got %v", cfg.JanitorInterval())
	}
	if !cfg.Scoring.StrictWeights {
		t.Error("expected strict weights enabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
	stream := cfg.HermesStream()
	if stream.Name != "ASSAY_STAGING" || stream.MaxAge != 24*time.Hour || stream.Replicas != 3 || stream.Storage != "memory" {
		t.Errorf("unexpected stream options %+v", stream)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "assay.yaml")
	data := `
server:
  port: 7000
database:
  driver: memory
modules:
  - module_type: risk
    item_name_field: name
    subject_path: /risks/{id}
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port kept, got %d", cfg.Server.MetricsPort)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0].SubjectPath != "/risks/{id}" {
		t.Errorf("expected file modules to replace defaults, got %+v", cfg.Modules)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		mut     func(c *Config)
		wantErr bool
	}{
		{"memory ok", func(c *Config) { c.Database.Driver = "memory" }, false},
		{"postgres needs url", func(c *Config) {}, true},
		{"postgres with url", func(c *Config) { c.Database.URL = "postgres://localhost/assay" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, true},
		{"zero port", func(c *Config) { c.Database.Driver = "memory"; c.Server.Port = 0 }, true},
		{"janitor interval", func(c *Config) { c.Database.Driver = "memory"; c.Janitor.IntervalMs = 0 }, true},
		{"janitor disabled", func(c *Config) { c.Database.Driver = "memory"; c.Janitor.Enabled = false; c.Janitor.IntervalMs = 0 }, false},
		{"bad module", func(c *Config) { c.Database.Driver = "memory"; c.Modules[0].ModuleType = "hr" }, true},
		{"hermes stream name", func(c *Config) { c.Database.Driver = "memory"; c.Hermes.Stream = "" }, true},
		{"hermes storage", func(c *Config) { c.Database.Driver = "memory"; c.Hermes.Storage = "disk" }, true},
		{"hermes replicas", func(c *Config) { c.Database.Driver = "memory"; c.Hermes.Replicas = 0 }, true},
		{"hermes disabled", func(c *Config) { c.Database.Driver = "memory"; c.Hermes.URL = ""; c.Hermes.Stream = "" }, false},
		{"duplicate module", func(c *Config) { c.Database.Driver = "memory"; c.Modules[1].ModuleType = "risk" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mut(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
