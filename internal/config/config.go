package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Facility struct {
		Name      string  `yaml:"name"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		Timezone  string  `yaml:"timezone"`
	} `yaml:"facility"`

	Scraper struct {
		BaseURL        string `yaml:"base_url"`
		LoginPath      string `yaml:"login_path"`
		SheetPath      string `yaml:"sheet_path"`
		Username       string `yaml:"username"`
		Password       string `yaml:"password"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"scraper"`

	Pipeline struct {
		IntervalMinutes  int      `yaml:"interval_minutes"`
		MaxConcurrent    int      `yaml:"max_concurrent"`
		RunRetentionDays int      `yaml:"run_retention_days"`
		ExcludedHolidays []string `yaml:"excluded_holidays"`
	} `yaml:"pipeline"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		FromName string `yaml:"from_name"`
	} `yaml:"smtp"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CooldownMinutes int    `yaml:"cooldown_minutes"`
	} `yaml:"redis"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	API struct {
		Port              int    `yaml:"port"`
		PublicBaseURL     string `yaml:"public_base_url"`
		LinkExpiryMinutes int    `yaml:"link_expiry_minutes"`
	} `yaml:"api"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	OperatorEmail string `yaml:"operator_email"`
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

	cfg.applyDefaults()

	if err = cfg.validate(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Facility.Name == "" {
		c.Facility.Name = "Bethpage Black"
	}
	if c.Facility.Latitude == 0 && c.Facility.Longitude == 0 {
		c.Facility.Latitude = 40.7326
		c.Facility.Longitude = -73.4457
	}
	if c.Facility.Timezone == "" {
		c.Facility.Timezone = "America/New_York"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/teewatch.db"
	}
	if c.Pipeline.IntervalMinutes <= 0 {
		c.Pipeline.IntervalMinutes = 5
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		c.Pipeline.MaxConcurrent = 8
	}
	if c.Pipeline.RunRetentionDays <= 0 {
		c.Pipeline.RunRetentionDays = 14
	}
	if c.Pipeline.ExcludedHolidays == nil {
		c.Pipeline.ExcludedHolidays = []string{"Veterans Day"}
	}
	if c.API.Port <= 0 {
		c.API.Port = 8080
	}
	if c.API.LinkExpiryMinutes <= 0 {
		c.API.LinkExpiryMinutes = 60
	}
	if c.SMTP.Port <= 0 {
		c.SMTP.Port = 587
	}
	if c.Redis.CooldownMinutes < 0 {
		c.Redis.CooldownMinutes = 0
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 7
	}
}

func (c *Config) validate() error {
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url is required")
	}
	if c.SMTP.Host == "" || c.SMTP.Address == "" {
		return fmt.Errorf("smtp.host and smtp.address are required")
	}
	return nil
}

func (c *Config) ScrapeInterval() time.Duration {
	return time.Duration(c.Pipeline.IntervalMinutes) * time.Minute
}

func (c *Config) ScraperTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

func (c *Config) RunRetention() time.Duration {
	return time.Duration(c.Pipeline.RunRetentionDays) * 24 * time.Hour
}

func (c *Config) CooldownPeriod() time.Duration {
	return time.Duration(c.Redis.CooldownMinutes) * time.Minute
}

func (c *Config) LinkExpiry() time.Duration {
	return time.Duration(c.API.LinkExpiryMinutes) * time.Minute
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
