// Package config loads ACP configuration from acp.yaml with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const configFile = "acp.yaml"

// Defaults applied for absent or empty settings.
const (
	DefaultBaseURL          = "http://localhost:8000"
	DefaultModel            = "gpt-oss:20b"
	DefaultTimeoutSeconds   = 120
	DefaultDownloadsDir     = "./workpapers"
	DefaultMaxScriptBytes   = 10 << 20
	DefaultMaxEvidenceBytes = 25 << 20
)

// Config is the resolved ACP configuration.
type Config struct {
	Engine    Engine    `yaml:"engine"`
	Downloads Downloads `yaml:"downloads"`
	Limits    Limits    `yaml:"limits"`
}

// Engine configures the assessment engine connection.
type Engine struct {
	BaseURL        string `yaml:"baseUrl"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	APIKey         string `yaml:"apiKey"`
}

// Downloads configures where fetched workpapers are written.
type Downloads struct {
	Dir string `yaml:"dir"`
}

// Limits caps accepted upload sizes.
type Limits struct {
	MaxScriptBytes   int64 `yaml:"maxScriptBytes"`
	MaxEvidenceBytes int64 `yaml:"maxEvidenceBytes"`
}

// Timeout returns the engine call timeout as a duration.
func (e Engine) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Load resolves configuration.
//
// Resolution order:
//  1. ACP_CONFIG env var (explicit path; missing file is an error)
//  2. ./acp.yaml (missing file falls back to defaults)
//
// ACP_ENGINE_URL, ACP_ENGINE_MODEL, ACP_ENGINE_API_KEY, and
// ACP_DOWNLOADS_DIR override file values. Keys absent from the file, or
// present but empty, keep their defaults.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("ACP_CONFIG")
	explicit := path != ""
	if path == "" {
		path = configFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file; defaults apply.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	fillDefaults(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Engine: Engine{
			BaseURL:        DefaultBaseURL,
			Model:          DefaultModel,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Downloads: Downloads{Dir: DefaultDownloadsDir},
		Limits: Limits{
			MaxScriptBytes:   DefaultMaxScriptBytes,
			MaxEvidenceBytes: DefaultMaxEvidenceBytes,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACP_ENGINE_URL"); v != "" {
		cfg.Engine.BaseURL = v
	}
	if v := os.Getenv("ACP_ENGINE_MODEL"); v != "" {
		cfg.Engine.Model = v
	}
	if v := os.Getenv("ACP_ENGINE_API_KEY"); v != "" {
		cfg.Engine.APIKey = v
	}
	if v := os.Getenv("ACP_DOWNLOADS_DIR"); v != "" {
		cfg.Downloads.Dir = v
	}
}

// fillDefaults restores defaults for values an explicit file set to
// empty or nonsense. An empty API key stays empty: it means no auth.
func fillDefaults(cfg *Config) {
	if cfg.Engine.BaseURL == "" {
		cfg.Engine.BaseURL = DefaultBaseURL
	}
	if cfg.Engine.Model == "" {
		cfg.Engine.Model = DefaultModel
	}
	if cfg.Engine.TimeoutSeconds <= 0 {
		cfg.Engine.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Downloads.Dir == "" {
		cfg.Downloads.Dir = DefaultDownloadsDir
	}
	if cfg.Limits.MaxScriptBytes <= 0 {
		cfg.Limits.MaxScriptBytes = DefaultMaxScriptBytes
	}
	if cfg.Limits.MaxEvidenceBytes <= 0 {
		cfg.Limits.MaxEvidenceBytes = DefaultMaxEvidenceBytes
	}
}
