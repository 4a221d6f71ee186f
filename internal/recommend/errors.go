// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline and the online path.
var (
	// ErrEmptyInput is returned by the trainer when extraction produced
	// no usable events. The run fails fast and no model is written.
	ErrEmptyInput = errors.New("no interaction events to train on")

	// ErrPipelineRunning is returned by Pipeline.Run when another run
	// holds the run lock.
	ErrPipelineRunning = errors.New("pipeline run already in progress")

	// ErrRecommendUnavailable is the only error the online path exposes
	// to callers. Internal causes are logged, never surfaced.
	ErrRecommendUnavailable = errors.New("recommendations are temporarily unavailable")

	errModelMissing = errors.New("no persisted model artifact")
)

// DataError marks a single malformed record. Data errors are counted
// and logged by the stage that hits them; they never abort a run.
type DataError struct {
	UserID string
	Source string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("bad interaction record (user=%s source=%s): %v", e.UserID, e.Source, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// StorageError wraps a failed read or write against the store. The
// failing stage aborts and prior persisted state stays intact.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ComputationError marks a numerically invalid training result. The
// run is fatal and the model artifact is not persisted.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed in %s: %v", e.Stage, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
