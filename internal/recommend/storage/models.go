// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

// Package storage persists trained model artifacts.
//
// Each model lives under a fixed name and is overwritten wholesale on
// every retrain; there is no version history. The on-disk format is a
// gob envelope holding metadata plus the gzip-compressed gob encoding
// of the model state, with a SHA-256 checksum verified on load.
//
// Writes go through a temp file and rename so a crashed run can never
// leave a half-written artifact behind.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ModelMetadata describes a stored model artifact.
type ModelMetadata struct {
	// Name is the model name (e.g. "als").
	Name string `json:"name"`

	// TrainedAt is when the model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// EventCount is the number of training events.
	EventCount int `json:"event_count"`

	// UserCount is the number of distinct users.
	UserCount int `json:"user_count"`

	// ItemCount is the number of distinct items.
	ItemCount int `json:"item_count"`

	// RMSE is the training-set fit error reported by the trainer.
	RMSE float64 `json:"rmse"`

	// Checksum is the SHA-256 checksum of the uncompressed model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long the fit took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// storedFile is the on-disk envelope for model artifacts.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Store manages model artifacts inside one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates a model store at the given directory, creating the
// directory when missing.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// modelPath returns the fixed artifact path for a model name.
func (s *Store) modelPath(name string) string {
	return filepath.Join(s.baseDir, name+".gob.gz")
}

// Exists reports whether an artifact is present for the model name.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.modelPath(name))
	return err == nil
}

// Save serializes and stores the model state, replacing any previous
// artifact under the same name.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(_ context.Context, name string, data interface{}, meta ModelMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.SavedAt = time.Now()
	meta.SizeBytes = int64(compressed.Len())

	sf := storedFile{
		Metadata:       meta,
		CompressedData: compressed.Bytes(),
	}

	tmp, err := os.CreateTemp(s.baseDir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()

	fileEnc := gob.NewEncoder(tmp)
	if err := fileEnc.Encode(sf); err != nil {
		_ = tmp.Close()       //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close model file: %w", err)
	}

	if err := os.Rename(tmpName, s.modelPath(name)); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("replace model file: %w", err)
	}

	return nil
}

// Load reads the stored model into target and returns its metadata.
func (s *Store) Load(_ context.Context, name string, target interface{}) (*ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.modelPath(name)) //nolint:gosec // path is constructed from trusted name parameter
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	fileDec := gob.NewDecoder(f)
	if err := fileDec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	dec := gob.NewDecoder(bytes.NewReader(rawData))
	if err := dec.Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	return &sf.Metadata, nil
}

// Metadata reads only the stored metadata without decoding the model.
func (s *Store) Metadata(_ context.Context, name string) (*ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.modelPath(name)) //nolint:gosec // path is constructed from trusted name parameter
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf.Metadata, nil
}
