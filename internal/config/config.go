// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/rs/zerolog"

	"github.com/iafnetworkspa/sysmon-mcp/internal/sysinfo"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds the server settings. Every field has a default, so an empty
// environment yields a working configuration.
type Config struct {
	ServerName string `env:"SYSMON_SERVER_NAME,default=SystemMonitor"`
	LogLevel   string `env:"SYSMON_LOG_LEVEL,default=info"`
	LogFormat  string `env:"SYSMON_LOG_FORMAT,default=console"`

	StatusCPUInterval  time.Duration `env:"SYSMON_STATUS_CPU_INTERVAL,default=1s"`
	StatusDiskPath     string        `env:"SYSMON_STATUS_DISK_PATH,default=/"`
	ProcessCPUInterval time.Duration `env:"SYSMON_PROCESS_CPU_INTERVAL,default=100ms"`
	EnableKill         bool          `env:"SYSMON_ENABLE_KILL,default=true"`
}

// Load reads the configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("failed to decode environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerName) == "" {
		return fmt.Errorf("SYSMON_SERVER_NAME must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("SYSMON_LOG_LEVEL is invalid: %w", err)
	}
	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("SYSMON_LOG_FORMAT must be %q or %q, got %q", LogFormatConsole, LogFormatJSON, c.LogFormat)
	}
	if c.StatusCPUInterval < 0 {
		return fmt.Errorf("SYSMON_STATUS_CPU_INTERVAL must not be negative")
	}
	if c.ProcessCPUInterval < 0 {
		return fmt.Errorf("SYSMON_PROCESS_CPU_INTERVAL must not be negative")
	}
	if c.StatusDiskPath == "" {
		return fmt.Errorf("SYSMON_STATUS_DISK_PATH must not be empty")
	}
	return nil
}

// Level returns the configured log level. It assumes Validate passed.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// MonitorOptions maps the collector settings onto sysinfo options.
func (c Config) MonitorOptions() sysinfo.Options {
	return sysinfo.Options{
		StatusCPUInterval:  c.StatusCPUInterval,
		StatusDiskPath:     c.StatusDiskPath,
		ProcessCPUInterval: c.ProcessCPUInterval,
		EnableKill:         c.EnableKill,
	}
}
