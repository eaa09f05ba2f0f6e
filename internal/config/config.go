// Package config loads the service configuration from YAML with
// ${ENV_VAR} expansion.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Enabled         bool   `yaml:"enabled"`
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Notifications struct {
		Enabled                bool    `yaml:"enabled"`
		BaseURL                string  `yaml:"base_url"`
		APIKey                 string  `yaml:"api_key"`
		Instance               string  `yaml:"instance"`
		RatePerSecond          float64 `yaml:"rate_per_second"`
		Burst                  int     `yaml:"burst"`
		ReminderIntervalMin    int     `yaml:"reminder_interval_minutes"`
		ReminderLookaheadHours int     `yaml:"reminder_lookahead_hours"`
		ReminderConcurrency    int     `yaml:"reminder_concurrency"`
	} `yaml:"notifications"`

	GoogleCalendar struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		CalendarID      string `yaml:"calendar_id"`
	} `yaml:"google_calendar"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/praxis.db"
	}
	if cfg.Redis.CacheTTLSeconds <= 0 {
		cfg.Redis.CacheTTLSeconds = 300
	}
	if cfg.Notifications.RatePerSecond <= 0 {
		cfg.Notifications.RatePerSecond = 1
	}
	if cfg.Notifications.Burst <= 0 {
		cfg.Notifications.Burst = 5
	}
	if cfg.Notifications.ReminderIntervalMin <= 0 {
		cfg.Notifications.ReminderIntervalMin = 30
	}
	if cfg.Notifications.ReminderLookaheadHours <= 0 {
		cfg.Notifications.ReminderLookaheadHours = 24
	}
	if cfg.Notifications.ReminderConcurrency <= 0 {
		cfg.Notifications.ReminderConcurrency = 3
	}
	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8081
	}
	if cfg.Monitoring.PrometheusPort == 0 {
		cfg.Monitoring.PrometheusPort = 9090
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CacheTTL returns the Redis cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// ReminderInterval returns how often the reminder loop sweeps.
func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.Notifications.ReminderIntervalMin) * time.Minute
}

// ReminderLookahead returns how far ahead reminders are sent.
func (c *Config) ReminderLookahead() time.Duration {
	return time.Duration(c.Notifications.ReminderLookaheadHours) * time.Hour
}

// BackupInterval returns how often backups run.
func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
