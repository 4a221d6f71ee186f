// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendation service:
// - Offline pipeline stage timing and throughput
// - Model training outcomes
// - Online request routing (primary vs fallback)
// - Database query performance (DuckDB)

// Pipeline outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recommendation path label values, matching the path the online
// recommender actually served.
const (
	PathPrimary  = "primary"
	PathFallback = "fallback"
	PathError    = "error"
)

var (
	// Pipeline Metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600}, // training can take minutes
		},
		[]string{"stage"}, // "extract", "train", "generate", "rank", "persist"
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)

	PipelineRunsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_runs_skipped_total",
			Help: "Total number of pipeline runs skipped because one was already in progress",
		},
	)

	// Extraction Metrics
	EventsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_events_extracted_total",
			Help: "Total number of interaction events extracted",
		},
		[]string{"source"}, // "liked", "saved", "viewed"
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_events_skipped_total",
			Help: "Total number of malformed interaction items skipped",
		},
		[]string{"source"},
	)

	// Training Metrics
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Duration of model training in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TrainingRMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_training_rmse",
			Help: "Training-set RMSE of the last fitted model",
		},
	)

	TrainingUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_training_users",
			Help: "Number of distinct users in the last training set",
		},
	)

	TrainingItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_training_items",
			Help: "Number of distinct items in the last training set",
		},
	)

	// Persistence Metrics
	RecommendationsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_persisted_total",
			Help: "Total number of recommendation rows written to the store",
		},
	)

	UsersRecommended = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_users_recommended",
			Help:    "Number of users receiving recommendations per run",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// Online Request Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of online recommendation requests by served path",
		},
		[]string{"path"}, // "primary", "fallback", "error"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_request_duration_seconds",
			Help:    "Online recommendation request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"path"},
	)

	FallbackCandidatesScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_fallback_candidates_scanned",
			Help:    "Number of catalog rows examined per fallback request",
			Buckets: []float64{10, 50, 100, 250, 500, 1000},
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Model Artifact Metrics
	ModelArtifactSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_artifact_size_bytes",
			Help: "Compressed size of the last persisted model artifact",
		},
	)

	ModelSavedAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_saved_timestamp",
			Help: "Unix timestamp of the last persisted model artifact",
		},
	)
)

// RecordStage records one completed pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPipelineRun records the outcome of a full pipeline run.
func RecordPipelineRun(err error) {
	if err != nil {
		PipelineRunsTotal.WithLabelValues(OutcomeError).Inc()
		return
	}
	PipelineRunsTotal.WithLabelValues(OutcomeSuccess).Inc()
	PipelineLastSuccess.SetToCurrentTime()
}

// RecordExtraction records one source's extraction counts.
func RecordExtraction(source string, events, skipped int) {
	EventsExtracted.WithLabelValues(source).Add(float64(events))
	if skipped > 0 {
		EventsSkipped.WithLabelValues(source).Add(float64(skipped))
	}
}

// RecordTraining records the outcome of a successful model fit.
func RecordTraining(duration time.Duration, rmse float64, users, items int) {
	TrainingDuration.Observe(duration.Seconds())
	TrainingRMSE.Set(rmse)
	TrainingUsers.Set(float64(users))
	TrainingItems.Set(float64(items))
}

// RecordPersist records the per-run persistence volume.
func RecordPersist(users, rows int) {
	UsersRecommended.Observe(float64(users))
	RecommendationsPersisted.Add(float64(rows))
}

// RecordRecommendRequest records one served online request.
func RecordRecommendRequest(path string, duration time.Duration) {
	RecommendRequests.WithLabelValues(path).Inc()
	RecommendDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordDBQuery records one database query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordModelArtifact records the persisted model artifact.
func RecordModelArtifact(sizeBytes int64, savedAt time.Time) {
	ModelArtifactSize.Set(float64(sizeBytes))
	ModelSavedAt.Set(float64(savedAt.Unix()))
}
