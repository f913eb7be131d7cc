// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Snapshot keeps a PNG file on disk holding a recent frame. Readers never
// see a partial file: frames are written next to it and renamed in place.
type Snapshot struct {
	path     string
	interval time.Duration
	log      *zap.Logger
	lastSave time.Time
	saved    uint64
}

// NewSnapshot writes to path at most once per interval. A zero interval
// saves every frame.
func NewSnapshot(path string, interval time.Duration, log *zap.Logger) *Snapshot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Snapshot{path: path, interval: interval, log: log}
}

func (s *Snapshot) Present(_ context.Context, f Frame) error {
	if s.saved > 0 && f.At.Sub(s.lastSave) < s.interval {
		return nil
	}
	if err := WritePNG(s.path, f.Image); err != nil {
		return fmt.Errorf("snapshot: frame %d: %w", f.Seq, err)
	}
	s.lastSave = f.At
	s.saved++
	s.log.Debug("snapshot: saved", zap.String("path", s.path), zap.Uint64("frame", f.Seq))
	return nil
}

// Saved reports how many frames were written.
func (s *Snapshot) Saved() uint64 {
	return s.saved
}

func (s *Snapshot) Close() error {
	return nil
}

// WritePNG atomically replaces path with img encoded as PNG.
func WritePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
