// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import "testing"

func TestMovieDisplayable(t *testing.T) {
	tests := []struct {
		name    string
		poster  string
		trailer string
		want    bool
	}{
		{name: "both present", poster: "https://img/p.jpg", trailer: "https://vid/t.mp4", want: true},
		{name: "missing poster", poster: "", trailer: "https://vid/t.mp4", want: false},
		{name: "missing trailer", poster: "https://img/p.jpg", trailer: "", want: false},
		{name: "nan poster", poster: "nan", trailer: "https://vid/t.mp4", want: false},
		{name: "nan uppercase", poster: "NaN", trailer: "https://vid/t.mp4", want: false},
		{name: "whitespace poster", poster: "   ", trailer: "https://vid/t.mp4", want: false},
		{name: "both missing", poster: "", trailer: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Movie{MovieID: "1", Title: "x", PosterURL: tt.poster, TrailerURL: tt.trailer}
			if got := m.Displayable(); got != tt.want {
				t.Errorf("Displayable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenreProfileUnion(t *testing.T) {
	p := make(GenreProfile)
	p.Add("u1", []string{"action", "drama"})
	p.Add("u1", []string{"drama", "sci-fi"})
	p.Add("u2", []string{"horror"})

	for _, g := range []string{"action", "drama", "sci-fi"} {
		if !p.Overlaps("u1", []string{g}) {
			t.Errorf("u1 profile missing %q", g)
		}
	}
	if p.Overlaps("u1", []string{"horror"}) {
		t.Error("u1 profile must not contain horror")
	}
	if !p.Overlaps("u2", []string{"horror"}) {
		t.Error("u2 profile missing horror")
	}
}

func TestGenreProfileOverlaps(t *testing.T) {
	p := make(GenreProfile)
	p.Add("u1", []string{"action", "drama"})

	tests := []struct {
		name   string
		userID string
		genres []string
		want   bool
	}{
		{name: "single shared genre", userID: "u1", genres: []string{"drama"}, want: true},
		{name: "one of many shared", userID: "u1", genres: []string{"horror", "action"}, want: true},
		{name: "no shared genre", userID: "u1", genres: []string{"horror", "comedy"}, want: false},
		{name: "empty genres", userID: "u1", genres: nil, want: false},
		{name: "unknown user", userID: "u9", genres: []string{"action"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Overlaps(tt.userID, tt.genres); got != tt.want {
				t.Errorf("Overlaps(%s, %v) = %v, want %v", tt.userID, tt.genres, got, tt.want)
			}
		})
	}
}

func TestGenreProfileAddEmpty(t *testing.T) {
	p := make(GenreProfile)
	p.Add("u1", nil)
	if _, ok := p["u1"]; ok {
		t.Error("Add with no genres must not create a profile entry")
	}
}
