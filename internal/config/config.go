package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/livinlefevreloca/crmsync/internal/db"
	"github.com/livinlefevreloca/crmsync/internal/pipeline"
	"github.com/livinlefevreloca/crmsync/internal/remote"
)

// Schedule defaults: list resources sync thrice daily, the nested
// opportunity pipeline hourly.
const (
	DefaultListSchedule          = "0 6,12,18 * * *"
	DefaultOpportunitiesSchedule = "0 * * * *"
)

// Config represents the application configuration
type Config struct {
	Database db.Config     `toml:"database"`
	Remote   remote.Config `toml:"remote"`
	Sync     SyncConfig    `toml:"sync"`
	HTTP     HTTPConfig    `toml:"http"`
	Metrics  MetricsConfig `toml:"metrics"`
	Logging  LoggingConfig `toml:"logging"`
}

// SyncConfig holds scheduling settings
type SyncConfig struct {
	// Timezone applies to all schedule evaluation
	Timezone string `toml:"timezone"`
	// Schedules overrides the default cron expression per job name
	Schedules map[string]string `toml:"schedules"`
}

// HTTPConfig holds HTTP API server settings
type HTTPConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// MetricsConfig holds metrics exposure settings
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: db.Config{
			Driver:          "sqlite3",
			DSN:             "crmsync.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Remote: remote.DefaultConfig(),
		Sync: SyncConfig{
			Timezone:  "UTC",
			Schedules: map[string]string{},
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Address: "0.0.0.0",
			Port:    8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration with the following precedence:
// 1. Default values
// 2. Config file (if specified)
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ScheduleFor returns the cron expression for a job: the configured
// override when present, the documented default otherwise
func (c *Config) ScheduleFor(jobName string) string {
	if expr, ok := c.Sync.Schedules[jobName]; ok && expr != "" {
		return expr
	}

	if jobName == pipeline.OpportunitiesJobName {
		return DefaultOpportunitiesSchedule
	}
	return DefaultListSchedule
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Sync.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Sync.Timezone)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver must be specified")
	}
	if c.Database.Driver != "sqlite3" {
		return fmt.Errorf("unsupported database driver: %s (must be sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN must be specified")
	}

	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote base_url must be specified")
	}
	if c.Remote.PageSize <= 0 {
		return fmt.Errorf("remote page_size must be positive")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid sync timezone: %w", err)
	}

	for job, expr := range c.Sync.Schedules {
		known := false
		for _, name := range pipeline.JobNames() {
			if name == job {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("schedule configured for unknown job: %s", job)
		}
		if expr == "" {
			return fmt.Errorf("empty schedule for job: %s", job)
		}
	}

	if c.HTTP.Enabled {
		if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
			return fmt.Errorf("HTTP port must be between 1 and 65535")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}
