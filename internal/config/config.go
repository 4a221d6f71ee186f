// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

// Package config loads and validates Reelway configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an
// optional YAML file, then environment variables. The loaded Config is
// immutable for the lifetime of the process; in particular the active
// database path is resolved exactly once at load time (see resolve.go)
// rather than re-probed per query.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the recommendation pipeline and
// the online fallback ranker.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Fallback  FallbackConfig  `koanf:"fallback"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	// Path is the primary database file. Usually lives on shared
	// storage reachable only when the host is online.
	Path string `koanf:"path"`

	// ReplicaPath is an optional local replica used when the primary
	// path is unreachable at startup.
	ReplicaPath string `koanf:"replica_path"`

	// ActivePath is the path actually opened, chosen once at load time
	// by probing Path and falling back to ReplicaPath. Never set it in
	// a config file.
	ActivePath string `koanf:"-"`

	// MaxMemory caps DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// PipelineConfig configures the offline recommendation pipeline.
type PipelineConfig struct {
	// Weights maps an interaction source (liked, saved, viewed) to the
	// strength assigned to each of its events.
	Weights map[string]float64 `koanf:"weights"`

	// SnapshotPath is the JSON-lines file the extractor writes as the
	// durable intermediate between extraction and training.
	SnapshotPath string `koanf:"snapshot_path"`

	// ModelPath is the directory holding the persisted model artifact.
	ModelPath string `koanf:"model_path"`

	// MaxRecommendations caps how many ranked movies are stored per
	// user after the genre filter.
	MaxRecommendations int `koanf:"max_recommendations"`

	// ALS holds the factorization hyperparameters.
	ALS ALSConfig `koanf:"als"`
}

// ALSConfig holds the alternating-least-squares hyperparameters.
type ALSConfig struct {
	Factors        int     `koanf:"factors"`
	Iterations     int     `koanf:"iterations"`
	Regularization float64 `koanf:"regularization"`

	// Alpha scales interaction strength into confidence: w = 1 + Alpha*r.
	Alpha float64 `koanf:"alpha"`

	// Workers bounds factor-update parallelism. 0 means runtime.NumCPU().
	Workers int `koanf:"workers"`
}

// FallbackConfig configures the online genre-overlap fallback ranker.
type FallbackConfig struct {
	// ScanLimit bounds how many catalog rows one fallback request may
	// examine.
	ScanLimit int `koanf:"scan_limit"`

	// DisplayCount is how many movies a request returns.
	DisplayCount int `koanf:"display_count"`

	// Timeout bounds a single fallback computation.
	Timeout time.Duration `koanf:"timeout"`
}

// SchedulerConfig configures the supervised periodic pipeline runner.
type SchedulerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Interval     time.Duration `koanf:"interval"`
	RunOnStartup bool          `koanf:"run_on_startup"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would make the
// pipeline misbehave silently. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Pipeline.Weights) == 0 {
		return fmt.Errorf("pipeline.weights must name at least one interaction source")
	}
	for source, w := range c.Pipeline.Weights {
		if source == "" {
			return fmt.Errorf("pipeline.weights contains an empty source name")
		}
		if w <= 0 {
			return fmt.Errorf("pipeline.weights[%s] must be positive, got %v", source, w)
		}
	}
	if c.Pipeline.SnapshotPath == "" {
		return fmt.Errorf("pipeline.snapshot_path is required")
	}
	if c.Pipeline.ModelPath == "" {
		return fmt.Errorf("pipeline.model_path is required")
	}
	if c.Pipeline.MaxRecommendations <= 0 {
		return fmt.Errorf("pipeline.max_recommendations must be positive, got %d", c.Pipeline.MaxRecommendations)
	}

	if err := c.Pipeline.ALS.validate(); err != nil {
		return err
	}

	if c.Fallback.ScanLimit <= 0 {
		return fmt.Errorf("fallback.scan_limit must be positive, got %d", c.Fallback.ScanLimit)
	}
	if c.Fallback.DisplayCount <= 0 {
		return fmt.Errorf("fallback.display_count must be positive, got %d", c.Fallback.DisplayCount)
	}
	if c.Fallback.DisplayCount > c.Pipeline.MaxRecommendations {
		return fmt.Errorf("fallback.display_count (%d) exceeds pipeline.max_recommendations (%d)",
			c.Fallback.DisplayCount, c.Pipeline.MaxRecommendations)
	}
	if c.Fallback.Timeout <= 0 {
		return fmt.Errorf("fallback.timeout must be positive, got %v", c.Fallback.Timeout)
	}

	if c.Scheduler.Enabled && c.Scheduler.Interval < time.Minute {
		return fmt.Errorf("scheduler.interval must be at least 1m when the scheduler is enabled, got %v",
			c.Scheduler.Interval)
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func (a *ALSConfig) validate() error {
	if a.Factors <= 0 {
		return fmt.Errorf("pipeline.als.factors must be positive, got %d", a.Factors)
	}
	if a.Iterations <= 0 {
		return fmt.Errorf("pipeline.als.iterations must be positive, got %d", a.Iterations)
	}
	if a.Regularization < 0 {
		return fmt.Errorf("pipeline.als.regularization must be non-negative, got %v", a.Regularization)
	}
	if a.Alpha < 0 {
		return fmt.Errorf("pipeline.als.alpha must be non-negative, got %v", a.Alpha)
	}
	if a.Workers < 0 {
		return fmt.Errorf("pipeline.als.workers must be non-negative, got %d", a.Workers)
	}
	return nil
}
