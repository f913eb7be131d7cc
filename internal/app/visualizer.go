// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"strings"
	"time"

	"github.com/relabs-tech/gyro2d/internal/orientation"
	"github.com/relabs-tech/gyro2d/internal/render"
	"github.com/relabs-tech/gyro2d/internal/sensors"
	"github.com/relabs-tech/gyro2d/internal/touch"
)

// Visualizer is the update stage: it folds readings and touch events into
// the state the renderer shows. Only the loop goroutine touches it.
type Visualizer struct {
	integrator *orientation.Integrator
	accel      render.Vector
	mag        render.Vector
	touch      touch.Tracker

	counts  map[sensors.Kind]uint64
	ignored uint64
}

// NewVisualizer returns a visualizer at rest. start is the reference time
// for the first gyro step.
func NewVisualizer(start time.Time) *Visualizer {
	return &Visualizer{
		integrator: orientation.NewIntegrator(start),
		counts:     make(map[sensors.Kind]uint64, 3),
	}
}

// Dispatch applies one reading. Accelerometer X and magnetometer Y are
// inverted to match the screen with the device held in portrait; Z of both
// is unused.
func (v *Visualizer) Dispatch(r sensors.Reading) {
	switch r.Kind {
	case sensors.Gyro:
		v.integrator.Integrate(r.X, r.Y, r.Z, r.At)
	case sensors.Accel:
		v.accel = render.Vector{X: -r.X, Y: r.Y}
	case sensors.Mag:
		v.mag = render.Vector{X: r.X, Y: -r.Y}
	default:
		v.ignored++
		return
	}
	v.counts[r.Kind]++
}

// Touch applies one pointer event.
func (v *Visualizer) Touch(ev touch.Event) bool {
	return v.touch.Handle(ev)
}

// Orientation returns the integrated orientation.
func (v *Visualizer) Orientation() orientation.State {
	return v.integrator.State()
}

// Count returns how many readings of kind were applied.
func (v *Visualizer) Count(kind sensors.Kind) uint64 {
	return v.counts[kind]
}

// Ignored returns how many readings had an unknown kind.
func (v *Visualizer) Ignored() uint64 {
	return v.ignored
}

// Scene snapshots the current state for one frame.
func (v *Visualizer) Scene() render.Scene {
	return render.Scene{
		Orientation: v.integrator.State(),
		Accel:       v.accel,
		Mag:         v.mag,
		Touch:       v.touch.State(),
		Status:      v.status(),
	}
}

// status lists the sensors that have not reported yet.
func (v *Visualizer) status() string {
	var missing []string
	for _, k := range []sensors.Kind{sensors.Gyro, sensors.Accel, sensors.Mag} {
		if v.counts[k] == 0 {
			missing = append(missing, k.String())
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "waiting for " + strings.Join(missing, ", ")
}
