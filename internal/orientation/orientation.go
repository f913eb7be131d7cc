// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

const (
	// MinTimeStep replaces the integration step after a gap longer than
	// MaxTimeStep (pause/resume), so the gauge does not jump.
	MinTimeStep = 1.0 / 40.0

	// MaxTimeStep is the longest gap, in seconds, integrated as-is.
	MaxTimeStep = 1.0

	// DriftDamping scales the Z rate only. Hand-tuned against the yaw drift
	// of the reference handset; device calibration, not physics.
	DriftDamping = 0.96

	// TiltLimit bounds RotationX and RotationY. The tilt gauge is a limited
	// range indicator, not an inclination in radians.
	TiltLimit = 0.5

	RadiansToDegrees = 180.0 / math.Pi
)

// State is the integrated orientation handed to the renderer.
type State struct {
	RotationX float64 `json:"rotation_x"`
	RotationY float64 `json:"rotation_y"`
	RotationZ float64 `json:"rotation_z"`
}

// YawDegrees returns RotationZ in degrees, unwrapped.
func (s State) YawDegrees() float64 {
	return s.RotationZ * RadiansToDegrees
}

// Integrator accumulates angular velocity samples into a State.
// It is not safe for concurrent use; the event loop owns it.
type Integrator struct {
	last  time.Time
	state State
}

// NewIntegrator returns an integrator at rest whose first step is measured
// from start.
func NewIntegrator(start time.Time) *Integrator {
	return &Integrator{last: start}
}

// Integrate adds one gyroscope sample (rad/s per axis) taken at the given
// time and returns the updated state.
func (i *Integrator) Integrate(x, y, z float64, at time.Time) State {
	dt := Step(at.Sub(i.last))
	i.last = at

	i.state.RotationX = clampTilt(i.state.RotationX + x*dt)
	i.state.RotationY = clampTilt(i.state.RotationY + y*dt)
	i.state.RotationZ += DampZ(z) * dt

	return i.state
}

// State returns the last integrated state.
func (i *Integrator) State() State {
	return i.state
}

// Step converts the elapsed time between two samples into the integration
// step in seconds.
func Step(elapsed time.Duration) float64 {
	dt := elapsed.Seconds()
	if dt > MaxTimeStep {
		return MinTimeStep
	}
	return dt
}

// DampZ applies the yaw drift damping to a Z rate.
func DampZ(z float64) float64 {
	return z * DriftDamping
}

func clampTilt(v float64) float64 {
	if v > TiltLimit {
		return TiltLimit
	}
	if v < -TiltLimit {
		return -TiltLimit
	}
	return v
}
