// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry aggregates per-operation byte counts into periodic
// throughput reports.
//
// A [Telemetry] owns three pieces of state and two goroutines:
//
//   - an [ObservationBuffer]: fixed-capacity circular buffer of byte
//     counts, written by any number of instrumented callers under one
//     mutex;
//   - a [PendingCounter]: lock-free count of in-flight operations;
//   - a published report handle: the most recent completed [Report],
//     replaced atomically on every publish.
//
// The aggregation goroutine first sleeps to the next alignment
// boundary (one minute by default) and discards whatever accumulated
// during that wait, so streams started at different times report over
// comparable windows. It then drains the buffer once per timestep into
// a [Slot], and every ReportPeriod/TimestepPeriod slots publishes the
// report and starts a new one.
//
// The reporter goroutine wakes on each publish (through a capacity-1
// notify channel, so bursts coalesce), reads the latest report, and
// emits one [Summary]: a structured log line plus delivery to every
// configured [Sink]. A slow reporter skips intermediate reports; the
// sequence number guarantees it never reports the same one twice.
//
// A timestep whose buffer overflowed is recorded as [OverflowSentinel]
// in both fields of its slot. The reporter skips such slots with a
// warning, including their pending-operation sample.
//
// Nothing in this package returns an error to, or blocks, an
// instrumented caller beyond one short mutex hold per observation.
//
// Both goroutines stop when the context passed to [New] is cancelled;
// [Telemetry.Done] closes once they have exited. [Registry] keeps one
// Telemetry per named stream.
package telemetry
