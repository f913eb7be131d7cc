// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"math"
	"time"
)

// MockSource generates smoothly changing gyro, accel and mag readings.
type MockSource struct {
	interval time.Duration
	now      func() time.Time
}

// NewMockSource creates a mock source emitting one reading per sensor every
// interval.
func NewMockSource(interval time.Duration) *MockSource {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &MockSource{interval: interval, now: time.Now}
}

func (m *MockSource) Run(ctx context.Context, out chan<- Reading) error {
	start := m.now()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		at := m.now()
		for _, r := range mockReadings(at.Sub(start).Seconds(), at) {
			if err := emit(ctx, out, r); err != nil {
				return err
			}
		}
	}
}

// mockReadings is a slow wobble plus a steady yaw and a turning compass.
func mockReadings(elapsed float64, at time.Time) []Reading {
	heading := elapsed * 0.3
	return []Reading{
		{Kind: Gyro, X: 0.6 * math.Cos(elapsed), Y: 0.5 * math.Sin(elapsed*0.7), Z: 0.4, At: at},
		{Kind: Accel, X: 2 * math.Sin(elapsed*0.9), Y: 9.81 * math.Cos(elapsed*0.2), Z: 1, At: at},
		{Kind: Mag, X: -30 * math.Sin(heading), Y: 30 * math.Cos(heading), Z: -40, At: at},
	}
}
