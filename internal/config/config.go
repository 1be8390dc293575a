// Package config loads toolchain settings from tupa.yaml.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "tupa.yaml"

// Config holds every tunable of the toolchain.
type Config struct {
	Plan    Plan    `yaml:"plan"`
	Log     Log     `yaml:"log"`
	Runtime Runtime `yaml:"runtime"`
}

// Plan configures execution plan building.
type Plan struct {
	Module  string `yaml:"module"`
	Version string `yaml:"version"`
	Seed    int64  `yaml:"seed"`
}

// Log configures the logger.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// Runtime configures pipeline execution.
type Runtime struct {
	// Metrics dumps the prometheus registry after each run.
	Metrics bool `yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Plan: Plan{
			Module:  "std",
			Version: "0.1.0",
			Seed:    0,
		},
		Log: Log{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config %s", path)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode parses YAML from r on top of the defaults. Unknown keys are
// rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Plan.Module) == "" || strings.Contains(c.Plan.Module, "::") {
		return errors.Errorf("invalid plan module %q", c.Plan.Module)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

// Encode renders c as YAML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(err, "failed to encode config")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode config")
	}
	return buf.Bytes(), nil
}
