// Package config loads the process configuration with the precedence
// runtime overrides > environment > config file > defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Instantly InstantlyConfig `mapstructure:"instantly"`
	Refdata   RefdataConfig   `mapstructure:"refdata"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the zap loggers.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// InstantlyConfig configures the upstream lead API client.
type InstantlyConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Filter  string        `mapstructure:"filter"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RefdataConfig locates the contact directory and message catalogs.
type RefdataConfig struct {
	ContactsPath string `mapstructure:"contacts_path"`
	MessagesGlob string `mapstructure:"messages_glob"`
}

// EngineConfig configures the job engine.
type EngineConfig struct {
	PageDelay time.Duration `mapstructure:"page_delay"`
}

// HealthConfig toggles dependency health checks.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ValidateServe checks the fields the serve command cannot run without.
// Offline commands load the same config but skip this.
func (c *Config) ValidateServe() error {
	if c.Instantly.APIKey == "" {
		return fmt.Errorf("config: instantly.api_key is required (set LEADPULSE_API_KEY)")
	}
	if c.Refdata.ContactsPath == "" {
		return fmt.Errorf("config: refdata.contacts_path is required")
	}
	if c.Refdata.MessagesGlob == "" {
		return fmt.Errorf("config: refdata.messages_glob is required")
	}
	return nil
}
