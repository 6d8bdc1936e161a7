// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.API.BaseURL != "http://localhost:8080" {
		t.Errorf("expected base_url=http://localhost:8080, got %s", cfg.API.BaseURL)
	}
	if cfg.RenewEvery() != 13*time.Minute {
		t.Errorf("expected renew_every=13m, got %s", cfg.RenewEvery())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("UPKEEP_CONFIG", "")
	t.Setenv("UPKEEP_API_URL", "")
	t.Setenv("UPKEEP_STATE_DIR", "")
	t.Setenv("UPKEEP_ENVIRONMENT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() without UPKEEP_CONFIG should return defaults: %v", err)
	}
	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
}

func TestLoad_WithUpkeepConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "upkeep.yaml")
	configContent := `
environment: staging
api:
  base_url: https://api.staging.upkeep.dev
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("UPKEEP_CONFIG", configPath)
	t.Setenv("UPKEEP_API_URL", "")
	t.Setenv("UPKEEP_STATE_DIR", "")
	t.Setenv("UPKEEP_ENVIRONMENT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.API.BaseURL != "https://api.staging.upkeep.dev" {
		t.Errorf("expected staging base URL, got %s", cfg.API.BaseURL)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "upkeep.yaml")
	configContent := `
environment: staging

api:
  base_url: https://api.staging.upkeep.dev
  request_timeout: 10s

session:
  renew_every: 5m

paths:
  state: /custom/state
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("UPKEEP_API_URL", "")
	t.Setenv("UPKEEP_STATE_DIR", "")
	t.Setenv("UPKEEP_ENVIRONMENT", "")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.API.BaseURL != "https://api.staging.upkeep.dev" {
		t.Errorf("unexpected base_url: %s", cfg.API.BaseURL)
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Errorf("expected request_timeout=10s, got %s", cfg.RequestTimeout())
	}
	if cfg.RenewEvery() != 5*time.Minute {
		t.Errorf("expected renew_every=5m, got %s", cfg.RenewEvery())
	}
	if cfg.Paths.State != "/custom/state" {
		t.Errorf("unexpected state path: %s", cfg.Paths.State)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "upkeep.yaml")
	configContent := `
environment: production

api:
  base_url: http://localhost:8080

production:
  api:
    base_url: https://api.upkeep.dev
  paths:
    state: /var/lib/upkeep
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("UPKEEP_API_URL", "")
	t.Setenv("UPKEEP_STATE_DIR", "")
	t.Setenv("UPKEEP_ENVIRONMENT", "")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.API.BaseURL != "https://api.upkeep.dev" {
		t.Errorf("expected production base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.Paths.State != "/var/lib/upkeep" {
		t.Errorf("expected production state path, got %s", cfg.Paths.State)
	}
}

func TestEnvOverlay(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "upkeep.yaml")
	configContent := `
environment: development
api:
  base_url: http://localhost:8080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("UPKEEP_API_URL", "https://api.other.upkeep.dev")
	t.Setenv("UPKEEP_STATE_DIR", "/env/state")
	t.Setenv("UPKEEP_ENVIRONMENT", "staging")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.API.BaseURL != "https://api.other.upkeep.dev" {
		t.Errorf("UPKEEP_API_URL should override file value, got %s", cfg.API.BaseURL)
	}
	if cfg.Paths.State != "/env/state" {
		t.Errorf("UPKEEP_STATE_DIR should override file value, got %s", cfg.Paths.State)
	}
	if cfg.Environment != Staging {
		t.Errorf("UPKEEP_ENVIRONMENT should override file value, got %s", cfg.Environment)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/upkeep",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/upkeep",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "empty base URL",
			modify: func(c *Config) {
				c.API.BaseURL = ""
			},
			wantErr: true,
		},
		{
			name: "relative base URL",
			modify: func(c *Config) {
				c.API.BaseURL = "/api"
			},
			wantErr: true,
		},
		{
			name: "bad request timeout",
			modify: func(c *Config) {
				c.API.RequestTimeout = "soon"
			},
			wantErr: true,
		},
		{
			name: "bad renew interval",
			modify: func(c *Config) {
				c.Session.RenewEvery = "whenever"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
