// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelway/config.yaml",
	"/etc/reelway/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are
// the values a bare deployment runs with; file and env layers override.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "/data/reelway.duckdb",
			ReplicaPath: "",
			MaxMemory:   "2GB",
			Threads:     0, // 0 = use runtime.NumCPU()
		},
		Pipeline: PipelineConfig{
			Weights: map[string]float64{
				"liked":  5,
				"saved":  4,
				"viewed": 3,
			},
			SnapshotPath:       "/data/reelway/user_behavior.jsonl",
			ModelPath:          "/data/reelway/models",
			MaxRecommendations: 500,
			ALS: ALSConfig{
				Factors:        10,
				Iterations:     10,
				Regularization: 0.1,
				Alpha:          1.0,
				Workers:        0, // 0 = use runtime.NumCPU()
			},
		},
		Fallback: FallbackConfig{
			ScanLimit:    1000,
			DisplayCount: 12,
			Timeout:      2 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:      false, // one-shot by default; opt in for daemon mode
			Interval:     24 * time.Hour,
			RunOnStartup: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// After unmarshaling it validates the result and resolves the active
// database path (primary vs replica) exactly once.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables are mapped by the explicit table in
	// envTransformFunc; unknown variables are ignored.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg.Database.ActivePath = resolveDatabasePath(cfg.Database.Path, cfg.Database.ReplicaPath)

	return cfg, nil
}

// Load is the entry point used by main.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names to koanf config paths.
// Variables not listed here are ignored by the env layer.
var envMappings = map[string]string{
	"database_path":         "database.path",
	"database_replica_path": "database.replica_path",
	"database_max_memory":   "database.max_memory",
	"database_threads":      "database.threads",

	"pipeline_snapshot_path":       "pipeline.snapshot_path",
	"pipeline_model_path":          "pipeline.model_path",
	"pipeline_max_recommendations": "pipeline.max_recommendations",
	"pipeline_weight_liked":        "pipeline.weights.liked",
	"pipeline_weight_saved":        "pipeline.weights.saved",
	"pipeline_weight_viewed":       "pipeline.weights.viewed",

	"als_factors":        "pipeline.als.factors",
	"als_iterations":     "pipeline.als.iterations",
	"als_regularization": "pipeline.als.regularization",
	"als_alpha":          "pipeline.als.alpha",
	"als_workers":        "pipeline.als.workers",

	"fallback_scan_limit":    "fallback.scan_limit",
	"fallback_display_count": "fallback.display_count",
	"fallback_timeout":       "fallback.timeout",

	"scheduler_enabled":        "scheduler.enabled",
	"scheduler_interval":       "scheduler.interval",
	"scheduler_run_on_startup": "scheduler.run_on_startup",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Returning empty string drops the variable.
//
// Examples:
//   - DATABASE_PATH -> database.path
//   - ALS_FACTORS -> pipeline.als.factors
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
