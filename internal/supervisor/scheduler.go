// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/reelway/internal/config"
	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/recommend"
)

// PipelineRunner runs one offline pipeline pass.
type PipelineRunner interface {
	Run(ctx context.Context) error
}

// SchedulerService runs the pipeline on a fixed interval as a Suture
// service. A failed run is logged and the schedule continues; only
// context cancellation stops the service.
type SchedulerService struct {
	runner PipelineRunner
	cfg    config.SchedulerConfig
}

// NewSchedulerService creates the scheduler.
func NewSchedulerService(runner PipelineRunner, cfg config.SchedulerConfig) *SchedulerService {
	return &SchedulerService{runner: runner, cfg: cfg}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", s.cfg.Interval).
		Bool("run_on_startup", s.cfg.RunOnStartup).
		Msg("pipeline scheduler starting")

	if s.cfg.RunOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("pipeline scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	err := s.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, recommend.ErrPipelineRunning):
		logging.Warn().Msg("scheduled run skipped, previous run still in progress")
	case errors.Is(err, recommend.ErrEmptyInput):
		logging.Warn().Msg("scheduled run found no interaction events")
	case ctx.Err() != nil:
		// Shutdown raced the run; the select loop exits next.
	default:
		logging.Error().Err(err).Msg("scheduled pipeline run failed")
	}
}
