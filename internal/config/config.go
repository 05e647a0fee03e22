package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables
// and an optional YAML file.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataDir is scanned for the most recent forecast file at startup.
	DataDir string

	// ModelKind restricts ingestion to one product ("simple" or
	// "ensemble"); "auto" picks the most recent file of any kind.
	ModelKind string

	// PostcodeIndexPath points at the prebuilt postcode index. Empty
	// disables postcode lookups.
	PostcodeIndexPath string
	PostcodeEnabled   bool

	// DisplayTimezone is the zone used for wall-clock times in responses.
	DisplayTimezone string
}

// fileConfig mirrors Config for the optional YAML file named by
// RAINCAST_CONFIG. File values act as defaults; environment variables win.
type fileConfig struct {
	HTTPAddr          string `yaml:"http_addr"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
	DataDir           string `yaml:"data_dir"`
	ModelKind         string `yaml:"model_kind"`
	PostcodeIndexPath string `yaml:"postcode_index_path"`
	DisplayTimezone   string `yaml:"display_timezone"`
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("RAINCAST_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	shutdownStr := envOr("SHUTDOWN_TIMEOUT", or(file.ShutdownTimeout, "10s"))
	shutdownTimeout, err := time.ParseDuration(shutdownStr)
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cfg := &Config{
		HTTPAddr:          envOr("HTTP_ADDR", or(file.HTTPAddr, ":8080")),
		LogLevel:          envOr("LOG_LEVEL", or(file.LogLevel, "info")),
		LogFormat:         envOr("LOG_FORMAT", or(file.LogFormat, "json")),
		ShutdownTimeout:   shutdownTimeout,
		DataDir:           envOr("DATA_DIR", file.DataDir),
		ModelKind:         envOr("MODEL_KIND", or(file.ModelKind, "auto")),
		PostcodeIndexPath: envOr("POSTCODE_INDEX_PATH", file.PostcodeIndexPath),
		DisplayTimezone:   envOr("DISPLAY_TIMEZONE", or(file.DisplayTimezone, "Europe/Amsterdam")),
	}
	cfg.PostcodeEnabled = cfg.PostcodeIndexPath != ""

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	switch cfg.ModelKind {
	case "auto", "simple", "ensemble":
	default:
		return nil, fmt.Errorf("invalid MODEL_KIND %q", cfg.ModelKind)
	}
	if _, err := time.LoadLocation(cfg.DisplayTimezone); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
