// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

// Package recommend implements the Reelway recommendation core.
//
// The offline pipeline runs in four stages: the extractor flattens raw
// per-user interaction lists (liked, saved, viewed) into weighted
// training events, the trainer fits an ALS factorization over them, the
// generator produces per-user candidate sets from the fitted model, and
// the ranker filters candidates by genre overlap and persists the final
// ranked rows with per-user full-replace semantics. Pipeline.Run wires
// the stages together under a run-level lock.
//
// The online side is Recommender: it serves persisted pipeline output
// when present and otherwise switches (binary, no blending) to a
// genre-overlap scan over the catalog. The online path never trains or
// scores the model.
//
// Storage access goes through the InteractionSource, MovieCatalog and
// RecommendationStore interfaces; internal/database provides the DuckDB
// implementation.
package recommend
