// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/hiitbox/internal/domain/workout"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Workout   WorkoutConfig   `yaml:"workout"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Audio     AudioConfig     `yaml:"audio"`
	Control   ControlConfig   `yaml:"control"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// WorkoutConfig represents the initial workout selection.
type WorkoutConfig struct {
	HighIntensitySeconds int `yaml:"high_intensity_seconds" default:"20"`
	LowIntensitySeconds  int `yaml:"low_intensity_seconds" default:"10"`
	Cycles               int `yaml:"cycles" default:"8"`
}

// HeartbeatConfig represents heartbeat configuration.
type HeartbeatConfig struct {
	IntervalMs int `yaml:"interval_ms" default:"1000" validate:"gte=10,lte=60000"`
}

// AudioConfig represents audio cue playback configuration.
type AudioConfig struct {
	Player        string         `yaml:"player" default:"log" validate:"oneof=log exec"`
	PlayTimeoutMs int            `yaml:"play_timeout_ms" default:"500" validate:"gte=1,lte=10000"`
	Settings      map[string]any `yaml:"settings"`
}

// ControlConfig represents command authorization configuration.
type ControlConfig struct {
	// Token is required in the X-Control-Token header when set.
	Token string `yaml:"token"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("HIIT_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("HIIT_CONTROL_TOKEN"); v != "" {
		c.Control.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Ranges are owned by the workout domain
	if err := c.WorkoutConfiguration().Validate(); err != nil {
		return errors.Wrap(err, "invalid workout")
	}

	return nil
}

// WorkoutConfiguration returns the configured workout selection.
func (c *Config) WorkoutConfiguration() workout.Configuration {
	return workout.Configuration{
		HighIntensitySeconds: c.Workout.HighIntensitySeconds,
		LowIntensitySeconds:  c.Workout.LowIntensitySeconds,
		CycleCount:           c.Workout.Cycles,
	}
}

// HeartbeatInterval returns the heartbeat interval.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Heartbeat.IntervalMs) * time.Millisecond
}

// PlayTimeout returns the bound on a single cue start.
func (c *Config) PlayTimeout() time.Duration {
	return time.Duration(c.Audio.PlayTimeoutMs) * time.Millisecond
}

// ControlEnabled reports whether commands require a token.
func (c *Config) ControlEnabled() bool {
	return c.Control.Token != ""
}
