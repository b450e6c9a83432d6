// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the telemetry
// loops.
//
// Production code holds a [Clock] and never calls time.Now, time.After
// or time.Sleep directly. [Real] wraps the time package; [Fake] returns
// a [FakeClock] whose time only moves when the test calls Advance.
//
// # Cancellable Waits
//
// Background loops sleep with [Wait], which selects on a timer and a
// context and stops the timer when the context wins. A stopped timer no
// longer counts as pending on a FakeClock, so a cancelled loop does not
// confuse later WaitForTimers calls.
//
// # FakeClock Synchronization
//
// A goroutine that calls NewTimer or Wait on a FakeClock
// registers a pending timer. Tests call WaitForTimers(n) before Advance
// to close the race between registration and advancement:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop(ctx, fake)
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second)
package clock
