// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/metrics"
	"github.com/tomtom215/reelway/internal/recommend/algorithms"
)

// Pipeline runs the offline stages in order: extract, train, generate,
// rank, persist. At most one run executes at a time; a second Run while
// one is in flight returns ErrPipelineRunning immediately.
type Pipeline struct {
	extractor *Extractor
	trainer   *Trainer
	generator *Generator
	ranker    *Ranker

	runLock sync.Mutex
}

// NewPipeline wires the stages together.
func NewPipeline(extractor *Extractor, trainer *Trainer, generator *Generator, ranker *Ranker) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		trainer:   trainer,
		generator: generator,
		ranker:    ranker,
	}
}

// Run executes one full pipeline pass. Failures abort the run and leave
// previously persisted recommendations and the previous model artifact
// intact.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.runLock.TryLock() {
		metrics.PipelineRunsSkipped.Inc()
		return ErrPipelineRunning
	}
	defer p.runLock.Unlock()

	ctx = logging.ContextWithNewRunID(ctx)
	log := logging.FromContext(ctx)
	start := time.Now()
	log.Info().Msg("pipeline run starting")

	err := p.run(ctx)
	metrics.RecordPipelineRun(err)
	if err != nil {
		log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("pipeline run failed")
		return err
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Msg("pipeline run complete")
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	var events []InteractionEvent
	err := p.stage(ctx, "extract", func() error {
		var err error
		events, err = p.extractor.Extract(ctx)
		return err
	})
	if err != nil {
		return err
	}

	profile := ProfileFromEvents(events)
	interacted := IndexFromEvents(events)

	var model *algorithms.ALS
	err = p.stage(ctx, "train", func() error {
		var err error
		model, err = p.trainer.Train(ctx, events)
		return err
	})
	if err != nil {
		return err
	}

	var scores map[string][]algorithms.ItemScore
	err = p.stage(ctx, "generate", func() error {
		var err error
		scores, err = p.generator.Generate(ctx, model)
		return err
	})
	if err != nil {
		return err
	}

	var ranked map[string][]RankedMovie
	err = p.stage(ctx, "rank", func() error {
		var err error
		ranked, err = p.ranker.Rank(ctx, scores, profile, interacted)
		return err
	})
	if err != nil {
		return err
	}

	return p.stage(ctx, "persist", func() error {
		rows, err := p.ranker.Persist(ctx, ranked)
		if err != nil {
			return err
		}
		metrics.RecordPersist(len(ranked), rows)
		return nil
	})
}

// stage times one stage and records its duration regardless of outcome.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.RecordStage(name, elapsed)

	log := logging.FromContext(ctx)
	if err != nil {
		log.Error().
			Str("stage", name).
			Dur("duration", elapsed).
			Err(err).
			Msg("pipeline stage failed")
		return err
	}
	log.Info().
		Str("stage", name).
		Dur("duration", elapsed).
		Msg("pipeline stage complete")
	return nil
}
