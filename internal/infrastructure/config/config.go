package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Database DatabaseConfig `koanf:"database"`
	Advisory AdvisoryConfig `koanf:"advisory"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MinIdleConns    int           `koanf:"min_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type AdvisoryConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type MetricsConfig struct {
	Port int `koanf:"port"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load defaults
	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MinIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Advisory: AdvisoryConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Load config file if present
	configFile := os.Getenv("RISKD_CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	// Environment overrides: RISKD_DATABASE_URL -> database.url,
	// RISKD_LOG_LEVEL -> log_level. Only the first underscore separates the
	// section from the key; the rest stay literal.
	if err := k.Load(env.Provider("RISKD_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "RISKD_"))
		switch key {
		case "version", "environment", "log_level":
			return key
		}
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Advisory.Timeout <= 0 {
		return fmt.Errorf("advisory.timeout must be positive")
	}
	return nil
}
