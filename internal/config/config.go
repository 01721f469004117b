// Package config provides YAML-based configuration loading for Taskflow.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Taskflow configuration, loaded from taskflow.yaml.
type Config struct {
	Database  DatabaseConfig `yaml:"database"`
	Server    ServerConfig   `yaml:"server"`
	Worker    WorkerConfig   `yaml:"worker"`
	Schedule  ScheduleConfig `yaml:"schedule"`
	Notifiers NotifierConfig `yaml:"notifiers"`
}

// DatabaseConfig holds connection settings. Driver is "mysql" for server
// deployments or "sqlite" for local use; Path applies to sqlite only.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// WorkerConfig holds analysis worker daemon settings.
type WorkerConfig struct {
	Slots           int `yaml:"slots"`
	PollIntervalSec int `yaml:"poll_interval_sec"`
	JobTimeoutSec   int `yaml:"job_timeout_sec"`
	// ReaperSchedule is a 5-field cron expression for the stuck-job reaper.
	ReaperSchedule string `yaml:"reaper_schedule"`
}

// ScheduleConfig holds scheduling model constants.
type ScheduleConfig struct {
	// HoursPerDay converts dependency lag_days to hours. Defaults to 24.
	HoursPerDay float64 `yaml:"hours_per_day"`
}

// NotifierConfig holds optional Slack and Discord notification settings.
type NotifierConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials and the target channel.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot credentials and the target channel.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with all defaults applied, suitable for local use
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Database == "" {
		c.Database.Database = "taskflow"
	}
	if c.Database.Path == "" {
		c.Database.Path = "taskflow.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Worker.Slots == 0 {
		c.Worker.Slots = 2
	}
	if c.Worker.PollIntervalSec == 0 {
		c.Worker.PollIntervalSec = 3
	}
	if c.Worker.JobTimeoutSec == 0 {
		c.Worker.JobTimeoutSec = 600
	}
	if c.Worker.ReaperSchedule == "" {
		c.Worker.ReaperSchedule = "* * * * *"
	}
	if c.Schedule.HoursPerDay == 0 {
		c.Schedule.HoursPerDay = 24
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be mysql or sqlite", c.Database.Driver))
	}
	if c.Worker.Slots < 1 {
		errs = append(errs, "worker.slots must be at least 1")
	}
	if c.Schedule.HoursPerDay <= 0 {
		errs = append(errs, "schedule.hours_per_day must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
