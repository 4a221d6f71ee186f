// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"reflect"
	"testing"
)

func TestNormalizeMovieID(t *testing.T) {
	tests := []struct {
		name    string
		ref     any
		want    string
		wantErr bool
	}{
		{name: "json number", ref: float64(42), want: "42"},
		{name: "string", ref: "42", want: "42"},
		{name: "string with spaces", ref: "  42  ", want: "42"},
		{name: "non-numeric string passes through", ref: "tt0137523", want: "tt0137523"},
		{name: "object wrapper", ref: map[string]any{"movieId": float64(42)}, want: "42"},
		{name: "object wrapper with string", ref: map[string]any{"movieId": "42"}, want: "42"},
		{name: "fractional number", ref: 42.5, want: "42.5"},
		{name: "empty string", ref: "", wantErr: true},
		{name: "object without movieId", ref: map[string]any{"id": float64(42)}, wantErr: true},
		{name: "nested object", ref: map[string]any{"movieId": map[string]any{"v": float64(1)}}, wantErr: true},
		{name: "bool", ref: true, wantErr: true},
		{name: "nil", ref: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMovieID(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeMovieID(%v) = %q, want error", tt.ref, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeMovieID(%v) error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeMovieID(%v) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

// All three accepted reference forms of the same movie collapse to one
// canonical ID.
func TestNormalizeMovieIDCanonicalForms(t *testing.T) {
	refs := []any{float64(42), "42", map[string]any{"movieId": float64(42)}}
	for _, ref := range refs {
		got, err := NormalizeMovieID(ref)
		if err != nil {
			t.Fatalf("NormalizeMovieID(%v) error: %v", ref, err)
		}
		if got != "42" {
			t.Errorf("NormalizeMovieID(%v) = %q, want 42", ref, got)
		}
	}
}

func TestParseItemRefs(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantIDs     []string
		wantSkipped int
		wantErr     bool
	}{
		{
			name:    "mixed forms",
			raw:     `[42, "43", {"movieId": 44}]`,
			wantIDs: []string{"42", "43", "44"},
		},
		{
			name:        "malformed elements are skipped and counted",
			raw:         `[42, true, {"name": "no id"}, "43"]`,
			wantIDs:     []string{"42", "43"},
			wantSkipped: 2,
		},
		{name: "empty array", raw: `[]`, wantIDs: []string{}},
		{name: "empty input", raw: ``, wantIDs: nil},
		{name: "not an array", raw: `{"movieId": 42}`, wantErr: true},
		{name: "garbage", raw: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, skipped, err := ParseItemRefs([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseItemRefs(%q) = %v, want error", tt.raw, ids)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseItemRefs(%q) error: %v", tt.raw, err)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("ids[%d] = %q, want %q", i, ids[i], tt.wantIDs[i])
				}
			}
			if skipped != tt.wantSkipped {
				t.Errorf("skipped = %d, want %d", skipped, tt.wantSkipped)
			}
		})
	}
}

func TestNormalizeGenres(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "pipe delimited", raw: "Action|Sci-Fi|Thriller", want: []string{"action", "sci-fi", "thriller"}},
		{name: "comma delimited", raw: "Action, Sci-Fi", want: []string{"action", "sci-fi"}},
		{name: "json array", raw: `["Action", "Sci-Fi"]`, want: []string{"action", "sci-fi"}},
		{name: "lowercased", raw: "ACTION|action", want: []string{"action"}},
		{name: "dedupe keeps first-seen order", raw: "Drama|Action|drama", want: []string{"drama", "action"}},
		{name: "nan dropped", raw: "nan", want: nil},
		{name: "nan dropped among real genres", raw: "Action|NaN|Drama", want: []string{"action", "drama"}},
		{name: "empty", raw: "", want: nil},
		{name: "whitespace only", raw: "   ", want: nil},
		{name: "empty tokens dropped", raw: "Action||Drama", want: []string{"action", "drama"}},
		{name: "json array with non-strings", raw: `["Action", 7]`, want: []string{"action"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeGenres(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeGenres(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
