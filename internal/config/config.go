// Package config loads the simulator's startup configuration from YAML,
// applying defaults for everything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/dome-simulator/model"
)

// Config is the full startup configuration.
type Config struct {
	Command   CommandConfig   `yaml:"command"`
	HTTP      HTTPConfig      `yaml:"http"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Azimuth   AxisConfig      `yaml:"azimuth"`
	Elevation AxisConfig      `yaml:"elevation"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CommandConfig configures the TCP command listener.
type CommandConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// HTTPConfig configures the HTTP listener serving /metrics and the
// telemetry websocket.
type HTTPConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// TelemetryConfig configures the snapshot publication cycle.
type TelemetryConfig struct {
	CyclePeriod time.Duration `yaml:"cycle_period"`
}

// AxisConfig holds one axis' start position and drive limits, in radians.
type AxisConfig struct {
	StartPosition float64 `yaml:"start_position"`
	VMax          float64 `yaml:"vmax"`
	AMax          float64 `yaml:"amax"`
	JMax          float64 `yaml:"jmax"`
}

// Limits converts the axis configuration into drive limits.
func (a AxisConfig) Limits() model.DriveLimits {
	return model.DriveLimits{VMax: a.VMax, AMax: a.AMax, JMax: a.JMax}
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	azimuth := model.DefaultAzimuthLimits()
	elevation := model.DefaultElevationLimits()
	return Config{
		Command:   CommandConfig{ListenAddr: ":17717"},
		HTTP:      HTTPConfig{ListenAddr: ":8080"},
		Telemetry: TelemetryConfig{CyclePeriod: 200 * time.Millisecond},
		Azimuth: AxisConfig{
			StartPosition: 0,
			VMax:          azimuth.VMax,
			AMax:          azimuth.AMax,
			JMax:          azimuth.JMax,
		},
		Elevation: AxisConfig{
			StartPosition: 0,
			VMax:          elevation.VMax,
			AMax:          elevation.AMax,
			JMax:          elevation.JMax,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the simulator cannot start with.
func (c Config) Validate() error {
	if c.Command.ListenAddr == "" {
		return fmt.Errorf("command.listen_addr must be set")
	}
	if c.HTTP.ListenAddr == "" {
		return fmt.Errorf("http.listen_addr must be set")
	}
	if c.Telemetry.CyclePeriod <= 0 {
		return fmt.Errorf("telemetry.cycle_period must be positive, got %s", c.Telemetry.CyclePeriod)
	}
	if err := c.Azimuth.validate("azimuth"); err != nil {
		return err
	}
	return c.Elevation.validate("elevation")
}

func (a AxisConfig) validate(name string) error {
	if a.VMax <= 0 {
		return fmt.Errorf("%s.vmax must be positive, got %v", name, a.VMax)
	}
	if a.AMax <= 0 {
		return fmt.Errorf("%s.amax must be positive, got %v", name, a.AMax)
	}
	if a.JMax <= 0 {
		return fmt.Errorf("%s.jmax must be positive, got %v", name, a.JMax)
	}
	if a.StartPosition < 0 {
		return fmt.Errorf("%s.start_position must be non-negative, got %v", name, a.StartPosition)
	}
	return nil
}
