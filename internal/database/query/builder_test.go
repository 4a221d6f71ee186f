// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package query

import (
	"strings"
	"testing"
)

func TestWhereBuilderEmpty(t *testing.T) {
	clause, args := NewWhereBuilder().Build()

	if clause != "" {
		t.Errorf("empty builder clause = %q, want empty", clause)
	}
	if args != nil {
		t.Errorf("empty builder args = %v, want nil", args)
	}
}

func TestWhereBuilderAddIn(t *testing.T) {
	tests := []struct {
		name       string
		values     []string
		wantClause string
		wantArgs   int
	}{
		{
			name:       "single value",
			values:     []string{"42"},
			wantClause: "WHERE movie_id IN (?)",
			wantArgs:   1,
		},
		{
			name:       "multiple values",
			values:     []string{"42", "43", "44"},
			wantClause: "WHERE movie_id IN (?, ?, ?)",
			wantArgs:   3,
		},
		{
			name:       "empty list skipped",
			values:     nil,
			wantClause: "",
			wantArgs:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := NewWhereBuilder().AddIn("movie_id", tt.values).Build()

			if clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", clause, tt.wantClause)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("got %d args, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilderAddNotIn(t *testing.T) {
	clause, args := NewWhereBuilder().AddNotIn("title", []string{"a", "b"}).Build()

	if clause != "WHERE title NOT IN (?, ?)" {
		t.Errorf("clause = %q", clause)
	}
	if len(args) != 2 || args[0] != "a" || args[1] != "b" {
		t.Errorf("args = %v", args)
	}
}

func TestWhereBuilderCombined(t *testing.T) {
	wb := NewWhereBuilder().
		AddIn("movie_id", []string{"42"}).
		AddClause("predicted_rating > ?", 3.5).
		AddDisplayableArtwork()

	clause, args := wb.Build()

	if !strings.HasPrefix(clause, "WHERE ") {
		t.Errorf("clause should start with WHERE: %q", clause)
	}
	wantParts := []string{
		"movie_id IN (?)",
		"predicted_rating > ?",
		"lower(trim(poster_url)) <> 'nan'",
		"lower(trim(trailer_url)) <> 'nan'",
	}
	for _, part := range wantParts {
		if !strings.Contains(clause, part) {
			t.Errorf("clause %q missing %q", clause, part)
		}
	}
	if strings.Count(clause, " AND ") != 7 {
		t.Errorf("clause joins = %d ANDs, want 7: %q", strings.Count(clause, " AND "), clause)
	}
	if len(args) != 2 {
		t.Errorf("got %d args, want 2", len(args))
	}
}
