// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sync"
	"time"
)

// MaxClockSkew is how far a rebased producer time may drift from the local
// receive time before the timeline resyncs to the receive time.
const MaxClockSkew = time.Second

// Timeline maps producer timestamps onto the local clock. The first sample
// fixes the offset between the two clocks, so producer spacing between
// samples is kept while absolute time is local. Stamps never go backwards.
type Timeline struct {
	mu     sync.Mutex
	offset time.Duration
	synced bool
	last   time.Time
}

// Stamp returns the local time for a sample taken at producerMS (unix
// milliseconds, 0 if unknown) and received at received.
func (tl *Timeline) Stamp(producerMS int64, received time.Time) time.Time {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	at := received
	if producerMS > 0 {
		produced := time.UnixMilli(producerMS)
		if !tl.synced {
			tl.offset = received.Sub(produced)
			tl.synced = true
		}
		at = produced.Add(tl.offset)
		// Producer restarted or its clock stepped.
		if d := received.Sub(at); d > MaxClockSkew || d < -MaxClockSkew {
			tl.offset = received.Sub(produced)
			at = received
		}
	}

	if at.Before(tl.last) {
		at = tl.last
	}
	tl.last = at
	return at
}
