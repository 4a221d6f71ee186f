// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"time"

	"github.com/tomtom215/reelway/internal/config"
	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/metrics"
	"github.com/tomtom215/reelway/internal/recommend/algorithms"
	"github.com/tomtom215/reelway/internal/recommend/storage"
)

// ModelName is the single model artifact the pipeline maintains.
const ModelName = "als"

// Trainer fits the factorization model from extracted events and
// persists the resulting artifact.
type Trainer struct {
	cfg   config.ALSConfig
	store *storage.Store
}

// NewTrainer creates a trainer. store may be nil, in which case the
// fitted model is not persisted (used by tests and dry runs).
func NewTrainer(cfg config.ALSConfig, store *storage.Store) *Trainer {
	return &Trainer{cfg: cfg, store: store}
}

// Train fits a fresh model on the given events. An empty event set
// fails fast with ErrEmptyInput before any matrix work; a numerically
// invalid fit fails with a ComputationError and nothing is persisted.
func (t *Trainer) Train(ctx context.Context, events []InteractionEvent) (*algorithms.ALS, error) {
	if len(events) == 0 {
		return nil, ErrEmptyInput
	}

	ratings := make([]algorithms.Rating, len(events))
	for i, ev := range events {
		ratings[i] = algorithms.Rating{
			UserID: ev.UserID,
			ItemID: ev.MovieID,
			Value:  ev.Strength,
		}
	}

	model := algorithms.NewALS(algorithms.ALSConfig{
		Factors:        t.cfg.Factors,
		Iterations:     t.cfg.Iterations,
		Regularization: t.cfg.Regularization,
		Alpha:          t.cfg.Alpha,
		Workers:        t.cfg.Workers,
	})

	start := time.Now()
	if err := model.Train(ctx, ratings); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ComputationError{Stage: "train", Err: err}
	}
	elapsed := time.Since(start)

	users := model.Users()
	metrics.RecordTraining(elapsed, model.RMSE(), len(users), len(events))
	log := logging.FromContext(ctx)
	log.Info().
		Int("events", len(events)).
		Int("users", len(users)).
		Float64("rmse", model.RMSE()).
		Dur("duration", elapsed).
		Msg("model training complete")

	if t.store != nil {
		if err := t.persist(ctx, model, len(events), elapsed); err != nil {
			return nil, err
		}
	}
	return model, nil
}

func (t *Trainer) persist(ctx context.Context, model *algorithms.ALS, eventCount int, elapsed time.Duration) error {
	export := model.Export()
	meta := storage.ModelMetadata{
		Name:               ModelName,
		TrainedAt:          model.LastTrainedAt(),
		EventCount:         eventCount,
		UserCount:          len(export.Users),
		ItemCount:          len(export.Items),
		RMSE:               model.RMSE(),
		TrainingDurationMS: elapsed.Milliseconds(),
	}
	if err := t.store.Save(ctx, ModelName, export, meta); err != nil {
		return &StorageError{Op: "save model", Err: err}
	}

	saved, err := t.store.Metadata(ctx, ModelName)
	if err == nil {
		metrics.RecordModelArtifact(saved.SizeBytes, saved.SavedAt)
	}
	return nil
}

// LoadModel restores the persisted model artifact, if one exists.
func (t *Trainer) LoadModel(ctx context.Context) (*algorithms.ALS, error) {
	if t.store == nil || !t.store.Exists(ModelName) {
		return nil, &StorageError{Op: "load model", Err: errModelMissing}
	}

	var export algorithms.Model
	if _, err := t.store.Load(ctx, ModelName, &export); err != nil {
		return nil, &StorageError{Op: "load model", Err: err}
	}
	model, err := algorithms.RestoreALS(&export)
	if err != nil {
		return nil, &ComputationError{Stage: "restore", Err: err}
	}
	return model, nil
}
