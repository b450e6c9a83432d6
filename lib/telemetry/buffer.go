// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"sync"
)

// ObservationBuffer is a fixed-capacity circular buffer of
// observations. Writers append under the mutex; when an append would
// run past the end, the overflowed flag is set and writing restarts at
// index 0, overwriting the oldest unread observations of the current
// timestep.
//
// Thread-safe: all methods may be called concurrently.
type ObservationBuffer struct {
	mu           sync.Mutex
	observations []int64
	// lastWrite is the index of the most recent observation, -1 when
	// the buffer is empty.
	lastWrite  int
	overflowed bool
}

// NewObservationBuffer creates a buffer holding up to capacity
// observations per drain. The capacity must be positive.
func NewObservationBuffer(capacity int) *ObservationBuffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("observation buffer: capacity must be positive, got %d", capacity))
	}
	return &ObservationBuffer{
		observations: make([]int64, capacity),
		lastWrite:    -1,
	}
}

// Add records one observation.
func (b *ObservationBuffer) Add(observation int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastWrite++
	if b.lastWrite >= len(b.observations) {
		b.overflowed = true
		b.lastWrite = 0
	}
	b.observations[b.lastWrite] = observation
}

// Drain calls fn with the buffered observations and the overflow flag,
// then empties the buffer and clears the flag. fn runs with the mutex
// held: writers block until it returns, so it must not call back into
// the buffer or retain the slice.
//
// When overflowed is true the slice holds only the observations written
// since the last wrap and does not describe the timestep.
func (b *ObservationBuffer) Drain(fn func(observations []int64, overflowed bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fn(b.observations[:b.lastWrite+1], b.overflowed)
	b.lastWrite = -1
	b.overflowed = false
}

// Reset discards buffered observations and clears the overflow flag.
func (b *ObservationBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastWrite = -1
	b.overflowed = false
}

// Len returns the number of observations written since the last drain
// or wrap.
func (b *ObservationBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWrite + 1
}

// Overflowed reports whether the buffer has wrapped since the last
// drain.
func (b *ObservationBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}

// Capacity returns the fixed capacity.
func (b *ObservationBuffer) Capacity() int {
	return len(b.observations)
}
