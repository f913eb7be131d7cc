package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_TwoFingerGesture(t *testing.T) {
	var tr Tracker
	p1, p2 := Point{X: 10, Y: 20}, Point{X: 110, Y: 220}

	assert.True(t, tr.Handle(Event{Action: ActionDown, Pointers: []Point{p1}}))
	assert.Equal(t, Idle, tr.Phase())
	assert.False(t, tr.State().Active)

	assert.True(t, tr.Handle(Event{Action: ActionMove, Pointers: []Point{p1, p2}}))
	assert.True(t, tr.Handle(Event{Action: ActionMove, Pointers: []Point{p1, p2}}))
	assert.Equal(t, MultiTouch, tr.Phase())
	assert.Equal(t, State{Active: true, First: p1, Second: p2}, tr.State())

	assert.True(t, tr.Handle(Event{Action: ActionUp}))
	assert.Equal(t, Idle, tr.Phase())
	assert.False(t, tr.State().Active)
}

func TestTracker_PointsOverwrittenEachEvent(t *testing.T) {
	var tr Tracker
	tr.Handle(Event{Action: ActionMove, Pointers: []Point{{1, 1}, {2, 2}, {3, 3}}})
	tr.Handle(Event{Action: ActionMove, Pointers: []Point{{5, 6}, {7, 8}}})

	assert.Equal(t, Point{5, 6}, tr.State().First)
	assert.Equal(t, Point{7, 8}, tr.State().Second)
}

func TestTracker_FewerThanTwoPointersDeactivates(t *testing.T) {
	tests := []struct {
		name     string
		pointers []Point
		phase    Phase
	}{
		{"one", []Point{{1, 2}}, SingleTouch},
		{"none", nil, Idle},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var tr Tracker
			tr.Handle(Event{Action: ActionMove, Pointers: []Point{{0, 0}, {4, 4}}})
			tr.Handle(Event{Action: ActionMove, Pointers: tc.pointers})

			assert.Equal(t, tc.phase, tr.Phase())
			assert.False(t, tr.State().Active)
		})
	}
}

func TestTracker_CancelResets(t *testing.T) {
	var tr Tracker
	tr.Handle(Event{Action: ActionMove, Pointers: []Point{{0, 0}, {4, 4}}})
	tr.Handle(Event{Action: ActionCancel})
	assert.Equal(t, Idle, tr.Phase())
	assert.Equal(t, "idle", tr.Phase().String())
}
