// Package daemon manages the Stillpoint server lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all server configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Data       DataConfig       `toml:"data"`
	Engagement EngagementConfig `toml:"engagement"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DataConfig controls where the SQLite database lives.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// EngagementConfig controls streak computation.
type EngagementConfig struct {
	// Timezone is the reference timezone for day boundaries, e.g. "UTC"
	// or "America/New_York". All users share one reference timezone.
	Timezone string `toml:"timezone"`
	// SweepEnabled turns the daily inactive-streak sweep on or off.
	SweepEnabled bool `toml:"sweep_enabled"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8480,
		},
		Data: DataConfig{
			Dir: stillpointHome(),
		},
		Engagement: EngagementConfig{
			Timezone:     "UTC",
			SweepEnabled: true,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.stillpoint/config.toml, falling back
// to defaults when no file exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(stillpointHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.stillpoint/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(stillpointHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Location resolves the configured reference timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Engagement.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Engagement.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Engagement.Timezone, err)
	}
	return loc, nil
}

// stillpointHome returns the Stillpoint data directory.
func stillpointHome() string {
	if env := os.Getenv("STILLPOINT_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".stillpoint")
}
