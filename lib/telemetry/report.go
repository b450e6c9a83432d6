// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "time"

// OverflowSentinel marks both fields of a [Slot] whose timestep lost
// observations to buffer wraparound.
const OverflowSentinel int64 = -1

// Slot is the aggregate of one timestep.
type Slot struct {
	// BytesTransferred is the sum of the timestep's observations, or
	// OverflowSentinel.
	BytesTransferred int64 `json:"bytes_transferred"`

	// OperationsPending is the in-flight operation count sampled when
	// the timestep was drained, or OverflowSentinel.
	OperationsPending int64 `json:"operations_pending"`
}

// Overflowed reports whether the slot is the overflow sentinel.
func (s Slot) Overflowed() bool {
	return s.BytesTransferred < 0
}

// Report covers one report period: one slot per timestep plus the
// number of operations completed across the non-overflowed timesteps.
// A published Report is never modified.
type Report struct {
	Slots               []Slot `json:"slots"`
	OperationsCompleted int64  `json:"operations_completed"`
}

// PublishedReport is the value held by the published report handle.
// Sequence starts at 1 and increases by one on every publish of the
// same [Telemetry].
type PublishedReport struct {
	Report      Report    `json:"report"`
	PublishedAt time.Time `json:"published_at"`
	Sequence    uint64    `json:"sequence"`
}
