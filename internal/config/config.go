// Package config provides process configuration for HostProbe.
// It uses Viper to load settings from an optional file and environment variables.
// The listen address and port are not part of it; they come from the command line.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime settings that do not change what the probe reports.
type Config struct {
	// ── Logging ──────────────────────────────────────────────────────────────
	LogLevel string `mapstructure:"log_level"` // trace | debug | info | warn | error
	LogJSON  bool   `mapstructure:"log_json"`

	// ── Shutdown ─────────────────────────────────────────────────────────────
	// ShutdownTimeoutSeconds bounds how long an in-flight request may run
	// after an interrupt before the listener is torn down.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// ShutdownTimeout returns the grace period as a time.Duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Load reads config from path when given, otherwise from ./hostprobe.yaml or
// ~/.hostprobe/hostprobe.yaml, and falls back to defaults. Environment variables
// with prefix HOSTPROBE_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("shutdown_timeout_seconds", 5)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hostprobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.hostprobe")
	}
	if err := v.ReadInConfig(); err != nil {
		// the default file is optional; an explicit --config must exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("HOSTPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.ShutdownTimeoutSeconds < 0 {
		return nil, fmt.Errorf("shutdown_timeout_seconds must not be negative, got %d", cfg.ShutdownTimeoutSeconds)
	}
	return &cfg, nil
}
