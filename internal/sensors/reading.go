// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors delivers timestamped 3-axis readings from the supported
// backends as one tagged Reading type.
package sensors

import (
	"context"
	"fmt"
	"time"
)

// Kind tags which sensor produced a Reading.
type Kind int

const (
	Gyro  Kind = iota + 1 // rad/s
	Accel                 // m/s²
	Mag                   // µT
)

func (k Kind) String() string {
	switch k {
	case Gyro:
		return "gyro"
	case Accel:
		return "accel"
	case Mag:
		return "mag"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reading is one sample in device axes, before any screen mapping.
type Reading struct {
	Kind    Kind
	X, Y, Z float64
	At      time.Time
}

// Source pushes readings into out until ctx is done or the backend fails.
// Run owns no channel: it never closes out.
type Source interface {
	Run(ctx context.Context, out chan<- Reading) error
}

// emit sends r unless ctx is done first.
func emit(ctx context.Context, out chan<- Reading, r Reading) error {
	select {
	case out <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
