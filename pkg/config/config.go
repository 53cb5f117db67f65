// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the application configuration from YAML
// with ${ENV_VAR} expansion.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMProvider identifies the LLM provider type.
type LLMProvider string

const (
	LLMProviderGemini    LLMProvider = "gemini"
	LLMProviderAnthropic LLMProvider = "anthropic"
)

// LLMConfig configures the text-generation provider.
type LLMConfig struct {
	// Provider type (gemini, anthropic).
	Provider LLMProvider `yaml:"provider,omitempty"`

	// Model name (e.g. "gemini-2.0-flash", "claude-sonnet-4-20250514").
	Model string `yaml:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the default API endpoint (anthropic only).
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature for generation.
	Temperature *float64 `yaml:"temperature,omitempty"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty"`
}

// DigestConfig configures the codebase digest step.
type DigestConfig struct {
	// MaxFileSize skips files larger than this many bytes. Zero disables
	// the limit.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`
}

// PipelineConfig configures the workflow.
type PipelineConfig struct {
	// MaxIterations bounds each retrying stage.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// OutputDir is where exported posts are written.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// SessionConfig configures run transcript persistence.
type SessionConfig struct {
	// Enabled turns transcript persistence on.
	Enabled bool `yaml:"enabled,omitempty"`

	// Path is the SQLite database file. Supports ${VAR} expansion.
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled starts the metrics HTTP server.
	Enabled bool `yaml:"enabled,omitempty"`

	// Addr is the listen address.
	Addr string `yaml:"addr,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// File redirects logs to a file instead of stderr.
	File string `yaml:"file,omitempty"`
}

// Config is the root application configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Digest   DigestConfig   `yaml:"digest,omitempty"`
	Pipeline PipelineConfig `yaml:"pipeline,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// SetDefaults fills unset fields with working defaults.
func (c *Config) SetDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = LLMProviderGemini
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case LLMProviderGemini:
			c.LLM.APIKey = "${GEMINI_API_KEY}"
		case LLMProviderAnthropic:
			c.LLM.APIKey = "${ANTHROPIC_API_KEY}"
		}
	}
	if c.Pipeline.MaxIterations <= 0 {
		c.Pipeline.MaxIterations = 3
	}
	if c.Pipeline.OutputDir == "" {
		c.Pipeline.OutputDir = "."
	}
	if c.Session.Path == "" {
		c.Session.Path = "blogsmith.db"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "localhost:9090"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case LLMProviderGemini, LLMProviderAnthropic:
	default:
		return fmt.Errorf("unsupported llm provider: %q (supported: gemini, anthropic)", c.LLM.Provider)
	}

	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm max_tokens cannot be negative")
	}
	if c.LLM.Temperature != nil && (*c.LLM.Temperature < 0 || *c.LLM.Temperature > 2) {
		return fmt.Errorf("llm temperature must be between 0 and 2")
	}
	if c.Digest.MaxFileSize < 0 {
		return fmt.Errorf("digest max_file_size cannot be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %q", c.Logging.Level)
	}

	return nil
}

// Load reads the YAML file at path, expands environment variables, applies
// defaults and validates the result. An empty path yields the default
// configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.SetDefaults()
	cfg.expandEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) expandEnv() {
	c.LLM.APIKey = expandEnvVars(c.LLM.APIKey)
	c.LLM.BaseURL = expandEnvVars(c.LLM.BaseURL)
	c.Pipeline.OutputDir = expandEnvVars(c.Pipeline.OutputDir)
	c.Session.Path = expandEnvVars(c.Session.Path)
	c.Logging.File = expandEnvVars(c.Logging.File)
}
