// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/gyro2d/internal/render"
	"github.com/relabs-tech/gyro2d/internal/sensors"
	"github.com/relabs-tech/gyro2d/internal/touch"
)

// Frame is one rendered cycle handed to every sink. Sinks must treat it
// as read-only; it may be shared between them.
type Frame struct {
	Seq   uint64
	At    time.Time
	Image *image.RGBA
	Scene render.Scene
}

// Sink presents frames somewhere outside the process.
type Sink interface {
	Present(ctx context.Context, f Frame) error
	Close() error
}

// Loop serializes readings, touch events and frame ticks on a single
// goroutine, so the visualizer state needs no locking.
type Loop struct {
	vis      *Visualizer
	renderer *render.Renderer
	sinks    []Sink
	log      *zap.Logger

	readings chan sensors.Reading
	touches  chan touch.Event
	seq      uint64
}

// NewLoop wires the update and render stages. Sinks are presented in
// order on every tick.
func NewLoop(vis *Visualizer, renderer *render.Renderer, log *zap.Logger, sinks ...Sink) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		vis:      vis,
		renderer: renderer,
		sinks:    sinks,
		log:      log,
		readings: make(chan sensors.Reading, 64),
		touches:  make(chan touch.Event, 16),
	}
}

// Attach adds sinks. It must be called before Run.
func (l *Loop) Attach(sinks ...Sink) {
	l.sinks = append(l.sinks, sinks...)
}

// Readings is where sources deliver samples.
func (l *Loop) Readings() chan<- sensors.Reading {
	return l.readings
}

// Touches is where the viewer delivers pointer events.
func (l *Loop) Touches() chan<- touch.Event {
	return l.touches
}

// Run processes events until ctx is done. Each value received from ticks
// renders and presents exactly one frame.
func (l *Loop) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-l.readings:
			l.vis.Dispatch(r)
		case ev := <-l.touches:
			l.vis.Touch(ev)
		case at := <-ticks:
			l.tick(ctx, at)
		}
	}
}

// drain applies everything already queued, so a frame reflects every
// event delivered before its tick.
func (l *Loop) drain() {
	for {
		select {
		case r := <-l.readings:
			l.vis.Dispatch(r)
		case ev := <-l.touches:
			l.vis.Touch(ev)
		default:
			return
		}
	}
}

func (l *Loop) tick(ctx context.Context, at time.Time) {
	l.drain()
	l.seq++
	scene := l.vis.Scene()
	f := Frame{
		Seq:   l.seq,
		At:    at,
		Image: l.renderer.Render(scene),
		Scene: scene,
	}
	for _, s := range l.sinks {
		if err := s.Present(ctx, f); err != nil {
			l.log.Warn("loop: sink failed", zap.Uint64("frame", f.Seq), zap.Error(err))
		}
	}
}
