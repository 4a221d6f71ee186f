// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/reelway/internal/config"
)

func testFallbackConfig() config.FallbackConfig {
	return config.FallbackConfig{
		ScanLimit:    1000,
		DisplayCount: 12,
		Timeout:      5 * time.Second,
	}
}

func fallbackFixture() *fakeStore {
	store := newFakeStore()
	// u1's taste: action and drama, via the one movie they liked.
	store.addMovie(displayableMovie("10", "Liked Movie", "Action|Drama"))
	store.setList("u1", SourceLiked, `[10]`)

	// Candidates: two shared genres, one shared, none shared.
	store.addMovie(displayableMovie("20", "Double Match", "Action|Drama|War"))
	store.addMovie(displayableMovie("21", "Single Match", "Action|Comedy"))
	store.addMovie(displayableMovie("22", "No Match", "Horror|Mystery"))
	return store
}

func newTestRecommender(store *fakeStore, cfg config.FallbackConfig) *Recommender {
	return NewRecommender(store, store, store, cfg)
}

func TestRecommendPrimaryPath(t *testing.T) {
	store := fallbackFixture()
	stored := []RankedMovie{
		{UserID: "u1", MovieID: "20", Title: "Double Match", PredictedRating: 4.8},
		{UserID: "u1", MovieID: "21", Title: "Single Match", PredictedRating: 4.1},
	}
	if err := store.ReplaceRecommendations(context.Background(), "u1", stored); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	r := newTestRecommender(store, testFallbackConfig())
	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	if result.Path != PathPrimary {
		t.Errorf("path = %s, want %s", result.Path, PathPrimary)
	}
	if len(result.Movies) != 2 || result.Movies[0].MovieID != "20" {
		t.Errorf("movies = %+v", result.Movies)
	}
}

// A user the pipeline never covered is served by the fallback scan.
func TestRecommendColdUserFallsBack(t *testing.T) {
	store := fallbackFixture()
	r := newTestRecommender(store, testFallbackConfig())

	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	if result.Path != PathFallback {
		t.Fatalf("path = %s, want %s", result.Path, PathFallback)
	}
	// Two shared genres beats one; zero shared is excluded entirely,
	// as is the movie the user already interacted with.
	if len(result.Movies) != 2 {
		t.Fatalf("got %d movies, want 2: %+v", len(result.Movies), result.Movies)
	}
	if result.Movies[0].MovieID != "20" || result.Movies[1].MovieID != "21" {
		t.Errorf("order = %s, %s, want 20, 21", result.Movies[0].MovieID, result.Movies[1].MovieID)
	}
	if result.Movies[0].PredictedRating != 2 || result.Movies[1].PredictedRating != 1 {
		t.Errorf("overlap scores = %v, %v, want 2, 1",
			result.Movies[0].PredictedRating, result.Movies[1].PredictedRating)
	}
}

func TestRecommendNoHistoryEmptyFallback(t *testing.T) {
	store := fallbackFixture()
	r := newTestRecommender(store, testFallbackConfig())

	result, err := r.Recommend(context.Background(), "stranger", SourceLiked, RecommendOptions{})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if result.Path != PathFallback {
		t.Errorf("path = %s, want %s", result.Path, PathFallback)
	}
	if len(result.Movies) != 0 {
		t.Errorf("historyless user got %d movies, want 0", len(result.Movies))
	}
}

func TestRecommendFallbackSkipsNonDisplayable(t *testing.T) {
	store := fallbackFixture()
	store.addMovie(Movie{MovieID: "23", Title: "Broken Art", RawGenres: "Action|Drama", PosterURL: "nan"})

	r := newTestRecommender(store, testFallbackConfig())
	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	for _, m := range result.Movies {
		if m.MovieID == "23" {
			t.Error("non-displayable movie served")
		}
	}
}

func TestRecommendFallbackDedupesTitles(t *testing.T) {
	store := fallbackFixture()
	// Same title as the double match, different row.
	store.addMovie(displayableMovie("24", "Double Match", "Action|Drama"))

	r := newTestRecommender(store, testFallbackConfig())
	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	seen := make(map[string]int)
	for _, m := range result.Movies {
		seen[m.Title]++
	}
	if seen["Double Match"] != 1 {
		t.Errorf("title served %d times, want 1", seen["Double Match"])
	}
}

func TestRecommendExcludeIDs(t *testing.T) {
	store := fallbackFixture()
	r := newTestRecommender(store, testFallbackConfig())

	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{ExcludeIDs: []string{"20"}})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	for _, m := range result.Movies {
		if m.MovieID == "20" {
			t.Error("excluded movie served")
		}
	}
}

func TestRecommendRefreshSkipsStoredRows(t *testing.T) {
	store := fallbackFixture()
	stored := []RankedMovie{{UserID: "u1", MovieID: "22", Title: "No Match", PredictedRating: 4.8}}
	if err := store.ReplaceRecommendations(context.Background(), "u1", stored); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	r := newTestRecommender(store, testFallbackConfig())
	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{Refresh: true})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if result.Path != PathFallback {
		t.Errorf("path = %s, want %s with refresh", result.Path, PathFallback)
	}
}

func TestRecommendDisplayCountCap(t *testing.T) {
	store := newFakeStore()
	store.addMovie(displayableMovie("10", "Seed", "Drama"))
	store.setList("u1", SourceLiked, `[10]`)
	for i := 0; i < 30; i++ {
		id := string(rune('a'+i/26)) + string(rune('a'+i%26))
		store.addMovie(displayableMovie(id, "Movie "+id, "Drama"))
	}

	cfg := testFallbackConfig()
	cfg.DisplayCount = 12
	r := newTestRecommender(store, cfg)

	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{})
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if len(result.Movies) != 12 {
		t.Errorf("got %d movies, want display count of 12", len(result.Movies))
	}
}

func TestRecommendStoreFailure(t *testing.T) {
	store := fallbackFixture()
	store.failOp = "scan"
	r := newTestRecommender(store, testFallbackConfig())

	result, err := r.Recommend(context.Background(), "u1", SourceLiked, RecommendOptions{})
	if !errors.Is(err, ErrRecommendUnavailable) {
		t.Fatalf("error = %v, want ErrRecommendUnavailable", err)
	}
	if result == nil || len(result.Movies) != 0 {
		t.Errorf("failed request must return an empty result, got %+v", result)
	}
}

func TestRecommendUnknownSource(t *testing.T) {
	store := fallbackFixture()
	r := newTestRecommender(store, testFallbackConfig())

	result, err := r.Recommend(context.Background(), "u1", "starred", RecommendOptions{})
	if !errors.Is(err, ErrRecommendUnavailable) {
		t.Fatalf("error = %v, want ErrRecommendUnavailable", err)
	}
	if result == nil || len(result.Movies) != 0 {
		t.Errorf("unknown source must return an empty result, got %+v", result)
	}
}
