// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tomtom215/reelway/internal/recommend/storage"
)

func newTestPipeline(t *testing.T, store *fakeStore) *Pipeline {
	t.Helper()

	artifacts, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	snapshot := filepath.Join(t.TempDir(), "events.jsonl")

	return NewPipeline(
		NewExtractor(store, store, testWeights(), snapshot),
		NewTrainer(testALSConfig(), artifacts),
		NewGenerator(500),
		NewRanker(store, store, 500),
	)
}

func TestPipelineEndToEnd(t *testing.T) {
	store := newFakeStore()
	store.addMovie(displayableMovie("42", "Arrival", "Sci-Fi|Drama"))
	store.addMovie(displayableMovie("43", "Heat", "Crime|Thriller"))
	store.addMovie(displayableMovie("44", "Alien", "Sci-Fi|Horror"))
	store.addMovie(displayableMovie("45", "Sunshine", "Sci-Fi|Drama"))
	store.addMovie(displayableMovie("46", "The Thing", "Horror"))
	store.setList("u1", SourceLiked, `[42]`)
	store.setList("u1", SourceViewed, `[44]`)
	store.setList("u2", SourceLiked, `[43]`)
	store.setList("u3", SourceSaved, `[42, 44]`)

	p := newTestPipeline(t, store)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Every user with interactions gets persisted rows drawn from
	// movies overlapping their genre profile, never from the movies
	// they already interacted with.
	recs, err := store.Recommendations(context.Background(), "u1", 500)
	if err != nil {
		t.Fatalf("Recommendations(u1) error: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("u1 received no recommendations")
	}
	profile := map[string]struct{}{"sci-fi": {}, "drama": {}, "horror": {}}
	for _, rec := range recs {
		if rec.MovieID == "42" || rec.MovieID == "44" {
			t.Errorf("movie %s is in u1's history and must not be recommended", rec.MovieID)
		}
		overlap := false
		for _, g := range rec.Genres {
			if _, ok := profile[g]; ok {
				overlap = true
				break
			}
		}
		if !overlap {
			t.Errorf("movie %s (%v) shares no genre with u1's history", rec.MovieID, rec.Genres)
		}
	}
}

func TestPipelineEmptyStoreFails(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(t, store)

	err := p.Run(context.Background())
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Run() error = %v, want ErrEmptyInput", err)
	}
}

func TestPipelineFailureKeepsPriorRows(t *testing.T) {
	store := newFakeStore()
	prior := []RankedMovie{{UserID: "u1", MovieID: "42", Title: "Arrival", PredictedRating: 4}}
	if err := store.ReplaceRecommendations(context.Background(), "u1", prior); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	// No interaction lists at all, so the run dies in training.
	p := newTestPipeline(t, store)
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("Run() must fail on an empty store")
	}

	recs, err := store.Recommendations(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Recommendations() error: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("prior rows = %d, want 1 kept after failed run", len(recs))
	}
}

// blockingSource parks inside the extract stage until released, keeping
// a run in flight for the overlap test.
type blockingSource struct {
	*fakeStore
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) ListInteractions(ctx context.Context, source string) ([]InteractionList, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.fakeStore.ListInteractions(ctx, source)
}

func TestPipelineRejectsOverlappingRuns(t *testing.T) {
	store := newFakeStore()
	store.addMovie(displayableMovie("42", "Arrival", "Sci-Fi"))
	store.setList("u1", SourceLiked, `[42]`)

	blocking := &blockingSource{
		fakeStore: store,
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}

	artifacts, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	p := NewPipeline(
		NewExtractor(blocking, store, map[string]float64{SourceLiked: 5}, filepath.Join(t.TempDir(), "events.jsonl")),
		NewTrainer(testALSConfig(), artifacts),
		NewGenerator(500),
		NewRanker(store, store, 500),
	)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	<-blocking.started

	if err := p.Run(context.Background()); !errors.Is(err, ErrPipelineRunning) {
		t.Errorf("overlapping Run() error = %v, want ErrPipelineRunning", err)
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Errorf("first Run() error: %v", err)
	}
}
