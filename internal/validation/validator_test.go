// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package validation

import (
	"strings"
	"testing"
)

type testRecord struct {
	UserID   string  `validate:"required"`
	MovieID  string  `validate:"required"`
	Strength float64 `validate:"gt=0"`
}

func TestValidateStructPasses(t *testing.T) {
	rec := testRecord{UserID: "u1", MovieID: "42", Strength: 5}
	if err := ValidateStruct(&rec); err != nil {
		t.Errorf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	tests := []struct {
		name    string
		rec     testRecord
		wantMsg string
	}{
		{
			name:    "missing user",
			rec:     testRecord{MovieID: "42", Strength: 5},
			wantMsg: "UserID is required",
		},
		{
			name:    "missing movie",
			rec:     testRecord{UserID: "u1", Strength: 5},
			wantMsg: "MovieID is required",
		},
		{
			name:    "zero strength",
			rec:     testRecord{UserID: "u1", MovieID: "42"},
			wantMsg: "Strength must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.rec)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStructCollectsAllFailures(t *testing.T) {
	rec := testRecord{}
	err := ValidateStruct(&rec)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if got := len(err.Fields()); got != 3 {
		t.Errorf("got %d field errors, want 3", got)
	}
}

func TestGetValidatorIsSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() must return the same instance")
	}
}
