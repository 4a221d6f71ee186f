// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

// Package query provides SQL WHERE-clause construction for the
// database package. It keeps parameter handling in one place so the
// catalog and recommendation queries never concatenate values into
// SQL text.
package query

import (
	"fmt"
	"strings"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized
// arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddIn("movie_id", ids)
//	wb.AddDisplayableArtwork()
//	whereClause, args := wb.Build()
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments. Useful for
// conditions not covered by helper methods.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddIn adds a "column IN (?, ...)" filter. An empty value list is
// skipped.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, placeholders(len(values))))
	for _, v := range values {
		wb.args = append(wb.args, v)
	}
	return wb
}

// AddNotIn adds a "column NOT IN (?, ...)" filter. An empty value list
// is skipped.
func (wb *WhereBuilder) AddNotIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s NOT IN (%s)", column, placeholders(len(values))))
	for _, v := range values {
		wb.args = append(wb.args, v)
	}
	return wb
}

// AddDisplayableArtwork filters to rows whose poster and trailer URLs
// are present and not the literal "nan" the upstream scraper writes
// for missing values.
func (wb *WhereBuilder) AddDisplayableArtwork() *WhereBuilder {
	wb.clauses = append(wb.clauses,
		"poster_url IS NOT NULL",
		"trim(poster_url) <> ''",
		"lower(trim(poster_url)) <> 'nan'",
		"trailer_url IS NOT NULL",
		"trim(trailer_url) <> ''",
		"lower(trim(trailer_url)) <> 'nan'",
	)
	return wb
}

// Build assembles the WHERE clause. Returns an empty string and no
// args when no conditions were added; otherwise the returned clause
// starts with "WHERE ".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(wb.clauses, " AND "), wb.args
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
