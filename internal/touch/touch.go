// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package touch tracks the two-finger gesture shown by the visualizer.
package touch

// Action is the kind of pointer event delivered by the host view.
type Action string

const (
	ActionDown   Action = "down"
	ActionMove   Action = "move"
	ActionUp     Action = "up"
	ActionCancel Action = "cancel"
)

// Phase is the tracker's gesture state.
type Phase int

const (
	Idle Phase = iota
	SingleTouch
	MultiTouch
)

func (p Phase) String() string {
	switch p {
	case SingleTouch:
		return "single"
	case MultiTouch:
		return "multi"
	default:
		return "idle"
	}
}

// Point is a contact position in view coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is one pointer event with all current contacts, in contact order.
type Event struct {
	Action   Action  `json:"action"`
	Pointers []Point `json:"pointers"`
}

// State is what the renderer needs from the gesture.
type State struct {
	Active bool
	First  Point
	Second Point
}

// Tracker is the touch state machine. Zero value is Idle.
type Tracker struct {
	phase Phase
	state State
}

// Handle applies ev and reports whether it was consumed, which is always.
func (t *Tracker) Handle(ev Event) bool {
	switch ev.Action {
	case ActionDown:
		return true
	case ActionUp, ActionCancel:
		t.reset()
		return true
	}

	switch n := len(ev.Pointers); {
	case n >= 2:
		t.phase = MultiTouch
		t.state = State{Active: true, First: ev.Pointers[0], Second: ev.Pointers[1]}
	case n == 1:
		t.phase = SingleTouch
		t.state.Active = false
	default:
		t.reset()
	}
	return true
}

// Phase returns the current gesture state.
func (t *Tracker) Phase() Phase {
	return t.phase
}

// State returns a copy of the renderable gesture.
func (t *Tracker) State() State {
	return t.state
}

func (t *Tracker) reset() {
	t.phase = Idle
	t.state.Active = false
}
