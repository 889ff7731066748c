package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Assay/internal/directory"
	"github.com/MikeSquared-Agency/Assay/internal/hermes"
)

type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Database  DatabaseConfig      `yaml:"database"`
	Hermes    HermesConfig        `yaml:"hermes"`
	Directory DirectoryConfig     `yaml:"directory"`
	Janitor   JanitorConfig       `yaml:"janitor"`
	Scoring   ScoringConfig       `yaml:"scoring"`
	Modules   []directory.Profile `yaml:"modules"`
	Logging   LoggingConfig       `yaml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	MetricsPort        int    `yaml:"metrics_port"`
	AdminToken         string `yaml:"admin_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"` // memory, postgres, sqlite
	URL            string `yaml:"url"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type HermesConfig struct {
	URL         string `yaml:"url"`
	Stream      string `yaml:"stream"`
	MaxAgeHours int    `yaml:"max_age_hours"`
	Replicas    int    `yaml:"replicas"`
	Storage     string `yaml:"storage"` // file, memory
}

// DirectoryConfig points at the service that owns subjects. An empty URL
// disables labelling.
type DirectoryConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type JanitorConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMs int  `yaml:"interval_ms"`
}

type ScoringConfig struct {
	// StrictWeights rejects criterion writes that take a set above 100.
	StrictWeights bool `yaml:"strict_weights"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HermesStream returns the retention settings for the events stream.
func (c *Config) HermesStream() hermes.StreamOptions {
	return hermes.StreamOptions{
		Name:     c.Hermes.Stream,
		MaxAge:   time.Duration(c.Hermes.MaxAgeHours) * time.Hour,
		Replicas: c.Hermes.Replicas,
		Storage:  c.Hermes.Storage,
	}
}

func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.Janitor.IntervalMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	stream := hermes.DefaultStreamOptions()
	cfg := &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 300,
		},
		Database: DatabaseConfig{
			Driver:         "postgres",
			MigrateOnStart: true,
		},
		Hermes: HermesConfig{
			URL:         "nats://localhost:4222",
			Stream:      stream.Name,
			MaxAgeHours: int(stream.MaxAge / time.Hour),
			Replicas:    stream.Replicas,
			Storage:     stream.Storage,
		},
		Janitor: JanitorConfig{
			Enabled:    true,
			IntervalMs: 600000,
		},
		Modules: []directory.Profile{
			{ModuleType: "risk", ItemNameField: "title", ItemDescField: "description", SubjectPath: "/api/v1/risks/{id}"},
			{ModuleType: "bia", ItemNameField: "process_name", ItemDescField: "description", SubjectPath: "/api/v1/bia/{id}"},
			{ModuleType: "strategy", ItemNameField: "name", ItemDescField: "description", SubjectPath: "/api/v1/processes/{id}", AlternativePath: "/api/v1/strategies/{id}"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.MetricsPort <= 0 {
		return fmt.Errorf("server ports must be positive")
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Hermes.URL != "" {
		if c.Hermes.Stream == "" {
			return fmt.Errorf("hermes.stream required when hermes.url is set")
		}
		if c.Hermes.MaxAgeHours < 0 {
			return fmt.Errorf("hermes.max_age_hours must not be negative")
		}
		if c.Hermes.Replicas < 1 {
			return fmt.Errorf("hermes.replicas must be at least 1")
		}
		if c.Hermes.Storage != "file" && c.Hermes.Storage != "memory" {
			return fmt.Errorf("unknown hermes.storage %q", c.Hermes.Storage)
		}
	}
	if c.Janitor.Enabled && c.Janitor.IntervalMs <= 0 {
		return fmt.Errorf("janitor.interval_ms must be positive")
	}
	seen := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		switch m.ModuleType {
		case "risk", "bia", "strategy":
		default:
			return fmt.Errorf("unknown module type %q in modules", m.ModuleType)
		}
		if seen[m.ModuleType] {
			return fmt.Errorf("module type %q configured twice", m.ModuleType)
		}
		seen[m.ModuleType] = true
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ASSAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("ASSAY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("ASSAY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("ASSAY_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("ASSAY_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("ASSAY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ASSAY_MIGRATE_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.MigrateOnStart = b
		}
	}
	if v := os.Getenv("ASSAY_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("ASSAY_HERMES_STREAM"); v != "" {
		cfg.Hermes.Stream = v
	}
	if v := os.Getenv("ASSAY_HERMES_MAX_AGE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Hermes.MaxAgeHours = n
		}
	}
	if v := os.Getenv("ASSAY_HERMES_REPLICAS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Hermes.Replicas = n
		}
	}
	if v := os.Getenv("ASSAY_HERMES_STORAGE"); v != "" {
		cfg.Hermes.Storage = v
	}
	if v := os.Getenv("ASSAY_DIRECTORY_URL"); v != "" {
		cfg.Directory.URL = v
	}
	if v := os.Getenv("ASSAY_DIRECTORY_TOKEN"); v != "" {
		cfg.Directory.Token = v
	}
	if v := os.Getenv("ASSAY_JANITOR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Janitor.Enabled = b
		}
	}
	if v := os.Getenv("ASSAY_JANITOR_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Janitor.IntervalMs = n
		}
	}
	if v := os.Getenv("ASSAY_STRICT_WEIGHTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.StrictWeights = b
		}
	}
	if v := os.Getenv("ASSAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ASSAY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
