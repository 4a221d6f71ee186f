// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelway/internal/logging"
	"github.com/tomtom215/reelway/internal/metrics"
	"github.com/tomtom215/reelway/internal/validation"
)

// Extractor flattens raw per-user interaction lists into training
// events. Each source contributes events at its configured strength,
// and genres are denormalized from the catalog so downstream stages
// never re-join against it.
type Extractor struct {
	source       InteractionSource
	catalog      MovieCatalog
	weights      map[string]float64
	snapshotPath string
}

// NewExtractor creates an extractor over the given store. weights maps
// interaction sources to event strengths; sources absent from the map
// are not read at all.
func NewExtractor(source InteractionSource, catalog MovieCatalog, weights map[string]float64, snapshotPath string) *Extractor {
	return &Extractor{
		source:       source,
		catalog:      catalog,
		weights:      weights,
		snapshotPath: snapshotPath,
	}
}

// Extract reads every configured source, normalizes item references,
// attaches genres, and writes the resulting events to the JSON-lines
// snapshot. Malformed items are skipped and counted, never fatal; a
// failed store read or snapshot write aborts the stage.
func (e *Extractor) Extract(ctx context.Context) ([]InteractionEvent, error) {
	log := logging.FromContext(ctx)

	sources := make([]string, 0, len(e.weights))
	for source := range e.weights {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var events []InteractionEvent
	for _, source := range sources {
		sourceEvents, skipped, err := e.extractSource(ctx, source)
		if err != nil {
			return nil, err
		}
		events = append(events, sourceEvents...)
		metrics.RecordExtraction(source, len(sourceEvents), skipped)
		log.Debug().
			Str("source", source).
			Int("events", len(sourceEvents)).
			Int("skipped", skipped).
			Msg("extracted interaction source")
	}

	if err := e.attachGenres(ctx, events); err != nil {
		return nil, err
	}

	if err := e.writeSnapshot(events); err != nil {
		return nil, err
	}

	log.Info().
		Int("events", len(events)).
		Int("sources", len(sources)).
		Str("snapshot", e.snapshotPath).
		Msg("extraction complete")
	return events, nil
}

func (e *Extractor) extractSource(ctx context.Context, source string) ([]InteractionEvent, int, error) {
	log := logging.FromContext(ctx)
	strength := e.weights[source]

	lists, err := e.source.ListInteractions(ctx, source)
	if err != nil {
		return nil, 0, &StorageError{Op: "list interactions", Err: err}
	}

	var events []InteractionEvent
	skipped := 0
	for _, list := range lists {
		ids, listSkipped, err := ParseItemRefs(list.Items)
		if err != nil {
			// A list that is not an array at all counts as one bad
			// record; the user's other sources still contribute.
			skipped++
			log.Warn().
				Str("user_id", list.UserID).
				Str("source", source).
				Err(&DataError{UserID: list.UserID, Source: source, Err: err}).
				Msg("skipping unparseable interaction list")
			continue
		}
		skipped += listSkipped

		for _, id := range ids {
			events = append(events, InteractionEvent{
				UserID:   list.UserID,
				MovieID:  id,
				Strength: strength,
			})
		}
	}
	return events, skipped, nil
}

// attachGenres resolves every referenced movie once and copies its
// normalized genres onto each event. Movies missing from the catalog
// leave their events genre-less; the trainer does not need genres.
func (e *Extractor) attachGenres(ctx context.Context, events []InteractionEvent) error {
	if len(events) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, ev := range events {
		if _, ok := seen[ev.MovieID]; ok {
			continue
		}
		seen[ev.MovieID] = struct{}{}
		ids = append(ids, ev.MovieID)
	}

	movies, err := e.catalog.MoviesByID(ctx, ids)
	if err != nil {
		return &StorageError{Op: "resolve movies", Err: err}
	}

	genresByID := make(map[string][]string, len(movies))
	for id, m := range movies {
		genresByID[id] = NormalizeGenres(m.RawGenres)
	}
	for i := range events {
		events[i].Genres = genresByID[events[i].MovieID]
	}
	return nil
}

// writeSnapshot writes the events as JSON lines, replacing any previous
// snapshot atomically.
func (e *Extractor) writeSnapshot(events []InteractionEvent) error {
	dir := filepath.Dir(e.snapshotPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &StorageError{Op: "snapshot", Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(e.snapshotPath)+".tmp-*")
	if err != nil {
		return &StorageError{Op: "snapshot", Err: err}
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			closeAndRemove(tmp, tmpName)
			return &StorageError{Op: "snapshot", Err: err}
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			closeAndRemove(tmp, tmpName)
			return &StorageError{Op: "snapshot", Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		closeAndRemove(tmp, tmpName)
		return &StorageError{Op: "snapshot", Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return &StorageError{Op: "snapshot", Err: err}
	}
	if err := os.Rename(tmpName, e.snapshotPath); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return &StorageError{Op: "snapshot", Err: err}
	}
	return nil
}

func closeAndRemove(f *os.File, name string) {
	_ = f.Close()      //nolint:errcheck // already failing
	_ = os.Remove(name) //nolint:errcheck // best-effort cleanup
}

// ReadSnapshot loads a previously written JSON-lines snapshot. Used to
// retrain from the last extracted state without touching the store.
func ReadSnapshot(path string) ([]InteractionEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StorageError{Op: "snapshot", Err: err}
	}
	defer f.Close() //nolint:errcheck // read-only file

	var events []InteractionEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev InteractionEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, &StorageError{Op: "snapshot", Err: fmt.Errorf("line %d: %w", len(events)+1, err)}
		}
		if verr := validation.ValidateStruct(&ev); verr != nil {
			return nil, &StorageError{Op: "snapshot", Err: fmt.Errorf("line %d: %w", len(events)+1, verr)}
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StorageError{Op: "snapshot", Err: err}
	}
	return events, nil
}

// ProfileFromEvents builds each user's genre profile as the union of
// genres across their interaction events.
func ProfileFromEvents(events []InteractionEvent) GenreProfile {
	profile := make(GenreProfile)
	for _, ev := range events {
		profile.Add(ev.UserID, ev.Genres)
	}
	return profile
}

// IndexFromEvents builds each user's set of already-interacted movies.
func IndexFromEvents(events []InteractionEvent) InteractionIndex {
	index := make(InteractionIndex)
	for _, ev := range events {
		index.Add(ev.UserID, ev.MovieID)
	}
	return index
}
