// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package recommend

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// NormalizeMovieID canonicalizes one decoded item reference to a movie
// ID string. Accepted forms, all of which yield "42":
//
//	42                  (JSON number)
//	"42"                (string, trimmed)
//	{"movieId": 42}     (object wrapper, one level)
//
// Anything else is an error.
func NormalizeMovieID(ref any) (string, error) {
	switch v := ref.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", fmt.Errorf("empty movie id string")
		}
		return s, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("non-finite movie id %v", v)
		}
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return "", fmt.Errorf("empty movie id number")
		}
		return s, nil
	case map[string]any:
		inner, ok := v["movieId"]
		if !ok {
			return "", fmt.Errorf("object item reference has no movieId key")
		}
		if _, nested := inner.(map[string]any); nested {
			return "", fmt.Errorf("movieId value is itself an object")
		}
		return NormalizeMovieID(inner)
	default:
		return "", fmt.Errorf("unsupported item reference type %T", ref)
	}
}

// ParseItemRefs decodes a raw JSON interaction list and normalizes each
// element. Malformed elements are skipped and counted; a list that is
// not a JSON array at all is an error.
func ParseItemRefs(raw []byte) (ids []string, skipped int, err error) {
	if len(raw) == 0 {
		return nil, 0, nil
	}

	var refs []any
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, 0, fmt.Errorf("item list is not a JSON array: %w", err)
	}

	ids = make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := NormalizeMovieID(ref)
		if err != nil {
			skipped++
			continue
		}
		ids = append(ids, id)
	}
	return ids, skipped, nil
}

// NormalizeGenres converts a stored genre value to a lowercase token
// list, deduplicated in first-seen order. The stored form is either a
// JSON array of strings or a pipe/comma-delimited string; both occur
// in the catalog.
func NormalizeGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var tokens []string
	if strings.HasPrefix(raw, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			for _, v := range arr {
				if s, ok := v.(string); ok {
					tokens = append(tokens, s)
				}
			}
		} else {
			tokens = splitGenreString(raw)
		}
	} else {
		tokens = splitGenreString(raw)
	}

	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || tok == "nan" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// splitGenreString splits on the two delimiters that appear in stored
// genre strings.
func splitGenreString(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	})
}
