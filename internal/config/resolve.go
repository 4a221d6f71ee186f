// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package config

import (
	"os"
	"path/filepath"
)

// resolveDatabasePath picks the database file to open for this process.
// The primary path wins when it is reachable; otherwise the replica is
// used when one is configured and reachable. The decision is made once
// per process so a mid-run connectivity change cannot split reads and
// writes across two stores.
func resolveDatabasePath(primary, replica string) string {
	if pathReachable(primary) {
		return primary
	}
	if replica != "" && pathReachable(replica) {
		return replica
	}
	// Neither is reachable yet. Keep the primary so DuckDB creates it
	// on first open when the parent directory appears.
	return primary
}

// pathReachable reports whether the database file exists, or whether
// its parent directory does so the file can be created.
func pathReachable(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Dir(path)); err == nil {
		return true
	}
	return false
}
