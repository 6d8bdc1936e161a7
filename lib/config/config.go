// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment the client talks to.
type Environment string

const (
	// Development is for a locally running platform instance.
	Development Environment = "development"
	// Staging is for the pre-production platform.
	Staging Environment = "staging"
	// Production is for the live platform.
	Production Environment = "production"
)

// Config is the master configuration for the Upkeep client.
type Config struct {
	// Environment identifies which platform deployment the client
	// targets (development, staging, production).
	Environment Environment `yaml:"environment"`

	// API configures the connection to the platform API.
	API APIConfig `yaml:"api"`

	// Session configures session lifecycle behavior.
	Session SessionConfig `yaml:"session"`

	// Paths configures local file locations.
	Paths PathsConfig `yaml:"paths"`

	// Per-environment overrides, applied after the base config when
	// Environment matches.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	API   *APIConfig   `yaml:"api,omitempty"`
	Paths *PathsConfig `yaml:"paths,omitempty"`
}

// APIConfig configures the connection to the platform API.
type APIConfig struct {
	// BaseURL is the platform API origin, e.g. "https://api.upkeep.dev".
	// All request paths are relative to it.
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds each HTTP request. Default: 30s.
	RequestTimeout string `yaml:"request_timeout"`
}

// SessionConfig configures session lifecycle behavior.
type SessionConfig struct {
	// RenewEvery is the interval between background session renewals.
	// The server's session window is fifteen minutes; renewing every
	// thirteen leaves two minutes of slack for a slow or retried
	// refresh call. Default: 13m.
	RenewEvery string `yaml:"renew_every"`
}

// PathsConfig configures local file locations.
type PathsConfig struct {
	// State is the directory holding persistent client state (cached
	// identity, selected company, cookie jar). Empty means the
	// platform default (UPKEEP_STATE_DIR, XDG_STATE_HOME, or
	// ~/.local/state/upkeep).
	State string `yaml:"state"`
}

// envOverlay is the set of environment variables overlaid on the file
// config. Parsed with caarlos0/env after the file loads.
type envOverlay struct {
	APIBaseURL  string `env:"UPKEEP_API_URL"`
	StateDir    string `env:"UPKEEP_STATE_DIR"`
	Environment string `env:"UPKEEP_ENVIRONMENT"`
}

// Default returns the default configuration: development against a
// local platform instance.
func Default() *Config {
	return &Config{
		Environment: Development,
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: "30s",
		},
		Session: SessionConfig{
			RenewEvery: "13m",
		},
		Paths: PathsConfig{
			State: "",
		},
	}
}

// Load loads configuration from the path in UPKEEP_CONFIG. When
// UPKEEP_CONFIG is unset, the development defaults (plus the UPKEEP_*
// overlay) are returned so the client works without any setup.
func Load() (*Config, error) {
	configPath := os.Getenv("UPKEEP_CONFIG")
	if configPath == "" {
		cfg := Default()
		if err := cfg.applyEnvOverlay(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// environment-specific section matching Environment, overlays the
// UPKEEP_* variables, and expands ${VAR} patterns in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.applyEnvOverlay(); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.API != nil {
		if overrides.API.BaseURL != "" {
			c.API.BaseURL = overrides.API.BaseURL
		}
		if overrides.API.RequestTimeout != "" {
			c.API.RequestTimeout = overrides.API.RequestTimeout
		}
	}
	if overrides.Paths != nil {
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
	}
}

// applyEnvOverlay overlays the UPKEEP_* environment variables.
func (c *Config) applyEnvOverlay() error {
	var overlay envOverlay
	if err := env.Parse(&overlay); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}

	if overlay.APIBaseURL != "" {
		c.API.BaseURL = overlay.APIBaseURL
	}
	if overlay.StateDir != "" {
		c.Paths.State = overlay.StateDir
	}
	if overlay.Environment != "" {
		c.Environment = Environment(overlay.Environment)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Paths.State = expandVars(c.Paths.State, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("api.base_url is required"))
	} else if parsed, err := url.Parse(c.API.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL))
	}

	if _, err := time.ParseDuration(c.API.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("api.request_timeout: %w", err))
	}
	if _, err := time.ParseDuration(c.Session.RenewEvery); err != nil {
		errs = append(errs, fmt.Errorf("session.renew_every: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RequestTimeout returns the parsed API request timeout, falling back
// to the default when the configured value is invalid.
func (c *Config) RequestTimeout() time.Duration {
	parsed, err := time.ParseDuration(c.API.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return parsed
}

// RenewEvery returns the parsed session renewal interval, falling back
// to the default when the configured value is invalid.
func (c *Config) RenewEvery() time.Duration {
	parsed, err := time.ParseDuration(c.Session.RenewEvery)
	if err != nil {
		return 13 * time.Minute
	}
	return parsed
}
