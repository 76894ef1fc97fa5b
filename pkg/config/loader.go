package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file values. Credentials in
// particular are usually injected this way rather than written to disk.
const (
	EnvBaseURL  = "OPENIBN_CONTROLLER_URL"
	EnvUsername = "OPENIBN_USERNAME"
	EnvPassword = "OPENIBN_PASSWORD"
	EnvInsecure = "OPENIBN_INSECURE_SKIP_VERIFY"
	EnvTimeout  = "OPENIBN_TIMEOUT"
)

var validate = validator.New()

// Load reads a configuration file, applies environment overrides and
// validates the result. Path may be empty, in which case the
// configuration comes from defaults and the environment alone.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags and the
// telemetry section's own rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry configuration: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Controller.BaseURL = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Controller.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Controller.Password = v
	}
	if v := os.Getenv(EnvInsecure); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Controller.InsecureSkipVerify = parsed
		}
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Controller.Timeout = parsed
		}
	}
}
