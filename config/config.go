// Package config loads the application configuration file.
package config

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration, read from a YAML file.
type Config struct {
	// OSC is the remote-control listener.
	OSC OSCConfig `yaml:"osc"`

	// Audio configures the playback engine.
	Audio AudioConfig `yaml:"audio"`

	// Health configures the error sink.
	Health HealthConfig `yaml:"health"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
}

type OSCConfig struct {
	// Enabled turns the OSC listener on.
	Enabled bool `yaml:"enabled"`

	// Addr is the UDP listen address, host:port.
	Addr string `yaml:"addr"`

	// FeedbackAddr, when set, receives standby and playback replies.
	FeedbackAddr string `yaml:"feedbackAddr"`
}

type AudioConfig struct {
	// SampleRate in Hz for the output device.
	SampleRate int `yaml:"sampleRate"`
}

type HealthConfig struct {
	// CheckIntervalSeconds between aggregate health recomputations.
	CheckIntervalSeconds int `yaml:"checkIntervalSeconds"`

	// MaxHistory bounds the error-entry history.
	MaxHistory int `yaml:"maxHistory"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		OSC: OSCConfig{
			Enabled: false,
			Addr:    "127.0.0.1:53000",
		},
		Audio: AudioConfig{
			SampleRate: 44100,
		},
		Health: HealthConfig{
			CheckIntervalSeconds: 30,
			MaxHistory:           1000,
		},
		LogLevel: "info",
	}
}

// Load reads a config file, filling unset fields with defaults. A
// missing file yields the defaults without error.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if !exists {
		return cfg, nil
	}

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the runtime cannot work with.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("config: sample rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Health.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("config: health check interval must be positive")
	}
	if c.OSC.Enabled && c.OSC.Addr == "" {
		return fmt.Errorf("config: osc enabled without a listen address")
	}
	return nil
}
