// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

// Package main is the entry point for the Reelway recommendation
// pipeline.
//
// The pipeline reads user interaction lists (liked, saved, viewed) from
// the shared DuckDB store, fits an ALS factorization model, and writes
// per-user ranked recommendations back for the streaming backend to
// serve. A genre-overlap fallback covers users the model has not seen.
//
// # Modes
//
// Scheduled (default): a supervisor tree runs the pipeline on the
// configured interval alongside database maintenance, until SIGINT or
// SIGTERM.
//
//	./reelway-pipeline
//
// One-shot: run a single pipeline pass and exit. Suited to cron or CI.
//
//	./reelway-pipeline -once
//
// Lookup: print one user's recommendations as JSON and exit. Serves
// stored rows when the pipeline has covered the user, otherwise the
// genre-overlap fallback.
//
//	./reelway-pipeline -user 123
//	./reelway-pipeline -user 123 -source saved -refresh
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, a YAML config file
// (CONFIG_PATH or the default search paths), then built-in defaults.
// The database path falls back to the configured replica when the
// primary is unreachable at startup.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/reelway/internal/config"
	"github.com/tomtom215/reelway/internal/database"
	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/recommend"
	"github.com/tomtom215/reelway/internal/recommend/storage"
	"github.com/tomtom215/reelway/internal/supervisor"
)

func main() {
	var (
		runOnce     = flag.Bool("once", false, "run a single pipeline pass and exit")
		userID      = flag.String("user", "", "print recommendations for the given user and exit")
		source      = flag.String("source", recommend.SourceLiked, "with -user, the interaction source for the fallback profile (liked, saved, viewed)")
		refresh     = flag.Bool("refresh", false, "with -user, bypass stored rows and force the fallback scan")
		metricsAddr = flag.String("metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9090)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.ActivePath).
		Str("model_path", cfg.Pipeline.ModelPath).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	models, err := storage.NewStore(cfg.Pipeline.ModelPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize model store")
	}

	pipeline := recommend.NewPipeline(
		recommend.NewExtractor(db, db, cfg.Pipeline.Weights, cfg.Pipeline.SnapshotPath),
		recommend.NewTrainer(cfg.Pipeline.ALS, models),
		recommend.NewGenerator(cfg.Pipeline.MaxRecommendations),
		recommend.NewRanker(db, db, cfg.Pipeline.MaxRecommendations),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *userID != "":
		recommender := recommend.NewRecommender(db, db, db, cfg.Fallback)
		if err := printRecommendations(ctx, recommender, *userID, *source, *refresh); err != nil {
			logging.Fatal().Err(err).Str("user_id", *userID).Msg("Recommendation lookup failed")
		}
	case *runOnce:
		if err := pipeline.Run(ctx); err != nil {
			logging.Fatal().Err(err).Msg("Pipeline run failed")
		}
	default:
		if err := serveScheduled(ctx, cfg, pipeline, db, *metricsAddr); err != nil && !errors.Is(err, context.Canceled) {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	logging.Info().Msg("Shutdown complete")
}

// serveScheduled runs the supervised scheduler until the context is
// canceled by a signal.
func serveScheduled(ctx context.Context, cfg *config.Config, pipeline *recommend.Pipeline, db *database.DB, metricsAddr string) error {
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled; use -once for a single run")
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddPipelineService(supervisor.NewSchedulerService(pipeline, cfg.Scheduler))
	tree.AddMaintenanceService(supervisor.NewCheckpointService(db, 5*time.Minute))

	if metricsAddr != "" {
		startMetricsServer(ctx, metricsAddr)
	}

	logging.Info().
		Dur("interval", cfg.Scheduler.Interval).
		Msg("Starting supervised pipeline scheduler")
	return tree.Serve(ctx)
}

// startMetricsServer exposes /metrics in a background goroutine. It is
// best-effort; a bind failure is logged, not fatal.
func startMetricsServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", addr).Msg("Metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("Metrics endpoint failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx) //nolint:errcheck // best-effort shutdown
	}()
}

// printRecommendations writes one user's recommendations to stdout as
// indented JSON.
func printRecommendations(ctx context.Context, recommender *recommend.Recommender, userID, source string, refresh bool) error {
	result, err := recommender.Recommend(ctx, userID, source, recommend.RecommendOptions{Refresh: refresh})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}
