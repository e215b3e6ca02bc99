// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and SCORECAST_ environment variables.
// - Validation failures wrap ErrInvalidConfig; source failures wrap ErrLoadConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, also writes logs to a size-rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. "0.0.0.0:8000".
	Addr string `koanf:"addr"`

	// ModelsDir is the directory holding the model artifact files.
	ModelsDir string `koanf:"models_dir"`

	// LoadConcurrency bounds how many artifacts are decoded in parallel at startup.
	LoadConcurrency int `koanf:"load_concurrency"`

	// PredictTimeoutMS bounds a single model's predict call.
	PredictTimeoutMS int `koanf:"predict_timeout_ms"`

	// CORSAllowedOrigins lists origins allowed by CORS. "*" allows any origin
	// and is not suitable for production deployments.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               "0.0.0.0:8000",
		ModelsDir:          "./models",
		LoadConcurrency:    5,
		PredictTimeoutMS:   2000,
		CORSAllowedOrigins: []string{"*"},
	}
}

// PredictTimeout returns PredictTimeoutMS as a duration.
func (c *Config) PredictTimeout() time.Duration {
	return time.Duration(c.PredictTimeoutMS) * time.Millisecond
}
