// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"context"
	"time"
)

// Clock abstracts the time operations used by the telemetry loops.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer returns a Timer that fires once after d. If d <= 0 the
	// timer fires immediately.
	NewTimer(d time.Duration) *Timer
}

// Timer is a one-shot timer. Receive from C to wait for it; call Stop
// to abandon it.
type Timer struct {
	// C delivers the fire time. Buffered with capacity 1.
	C <-chan time.Time

	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns true if the call stopped
// a pending timer, false if it had already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Wait blocks until d has elapsed on c or ctx is done, whichever comes
// first. Returns ctx.Err() when the context ended the wait. The timer is
// stopped on cancellation so it does not linger as a pending waiter.
func Wait(ctx context.Context, c Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := c.NewTimer(d)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}

// UntilNext returns how long from now until the next multiple of
// period, measured from the zero time in now's location. A now that
// already sits on a boundary waits a full period. Returns 0 when period
// is not positive.
func UntilNext(now time.Time, period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	return now.Truncate(period).Add(period).Sub(now)
}
