// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"github.com/bureau-foundation/iometer/lib/clock"
)

// aggregator builds the in-progress report. It is owned by the
// aggregation goroutine and is not safe for concurrent use.
type aggregator struct {
	buffer  *ObservationBuffer
	pending *PendingCounter
	clock   clock.Clock
	publish func(*PublishedReport)

	slots     []Slot
	index     int
	completed int64
	sequence  uint64
}

func newAggregator(t *Telemetry) *aggregator {
	return &aggregator{
		buffer:  t.buffer,
		pending: &t.pending,
		clock:   t.clock,
		publish: t.publish,
		slots:   make([]Slot, t.timestepsPerReport),
	}
}

// tick drains the buffer into the current slot and publishes the
// report when its last slot has been filled. Returns true if it
// published.
func (a *aggregator) tick() bool {
	var slot Slot
	a.buffer.Drain(func(observations []int64, overflowed bool) {
		if overflowed {
			slot = Slot{BytesTransferred: OverflowSentinel, OperationsPending: OverflowSentinel}
			return
		}
		slot.OperationsPending = a.pending.Load()
		a.completed += int64(len(observations))
		for _, observation := range observations {
			slot.BytesTransferred += observation
		}
	})

	a.slots[a.index] = slot
	a.index++
	if a.index < len(a.slots) {
		return false
	}

	a.sequence++
	a.publish(&PublishedReport{
		Report: Report{
			Slots:               a.slots,
			OperationsCompleted: a.completed,
		},
		PublishedAt: a.clock.Now(),
		Sequence:    a.sequence,
	})
	a.slots = make([]Slot, len(a.slots))
	a.index = 0
	a.completed = 0
	return true
}

// runAggregator waits for the alignment boundary, discards what was
// recorded meanwhile, then ticks once per timestep until ctx is done.
func (t *Telemetry) runAggregator(ctx context.Context) {
	if t.alignment > 0 {
		wait := clock.UntilNext(t.clock.Now(), t.alignment)
		if err := clock.Wait(ctx, t.clock, wait); err != nil {
			return
		}
		t.buffer.Reset()
	}

	aggregator := newAggregator(t)
	for {
		if err := clock.Wait(ctx, t.clock, t.timestepPeriod); err != nil {
			return
		}
		if aggregator.tick() {
			t.logger.Debug("report published",
				"stream", t.name,
				"sequence", aggregator.sequence,
			)
		}
	}
}
