// Package config loads the daemon's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use forms like
// "5s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Transport selects how the daemon reaches the firmware.
type Transport string

const (
	// TransportACPI calls ACPI methods through /proc/acpi/call.
	TransportACPI Transport = "acpi"

	// TransportECPort talks to the embedded controller through the
	// legacy command/data ports on /dev/port.
	TransportECPort Transport = "ecport"

	// TransportMock is the in-memory firmware for development.
	TransportMock Transport = "mock"
)

// TraceLog configures the rotating CBOR trace log.
type TraceLog struct {
	// Path to the trace file. Empty disables tracing.
	Path string `yaml:"path"`

	// MaxSizeMB is the rotation threshold in megabytes.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `yaml:"max_backups"`
}

// Config is the daemon configuration.
type Config struct {
	// Transport selects the firmware transport.
	Transport Transport `yaml:"transport"`

	// AttachPolicy decides how to handle unknown hardware:
	// minimal, refuse, or assume-newest.
	AttachPolicy string `yaml:"attach_policy"`

	// PollInterval is the thermal zone polling cadence.
	PollInterval Duration `yaml:"poll_interval"`

	// TraceLog configures the structured trace output.
	TraceLog TraceLog `yaml:"trace_log"`

	// StateFile is where the daemon persists the last applied modes.
	StateFile string `yaml:"state_file"`

	// LogLevel is the slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration the daemon runs with when no file
// is given.
func Default() Config {
	return Config{
		Transport:    TransportACPI,
		AttachPolicy: "minimal",
		PollInterval: Duration(5 * time.Second),
		TraceLog:     TraceLog{MaxSizeMB: 10, MaxBackups: 3},
		StateFile:    "/var/lib/legiond/state.json",
		LogLevel:     "info",
	}
}

// Load reads and validates a YAML config file, applying defaults for
// unset fields.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportACPI, TransportECPort, TransportMock:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.AttachPolicy {
	case "minimal", "refuse", "assume-newest":
	default:
		return fmt.Errorf("unknown attach policy %q", c.AttachPolicy)
	}
	if c.PollInterval < 0 {
		return errors.New("poll_interval must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.TraceLog.Path != "" && c.TraceLog.MaxSizeMB <= 0 {
		return errors.New("trace_log.max_size_mb must be positive")
	}
	return nil
}
