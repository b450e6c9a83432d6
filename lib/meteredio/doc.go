// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package meteredio wraps readers, writers, and files so every call
// reports to a [Recorder] (normally a *telemetry.Telemetry).
//
// Each instrumented call:
//
//   - calls OperationPending before delegating;
//   - delegates with the caller's arguments and returns the delegate's
//     results and error unchanged;
//   - on success records one observation equal to the byte count
//     returned (io.EOF from a read counts as success and records its
//     count, normally zero);
//   - calls OperationComplete exactly once via defer, so the pending
//     count is restored even when the delegate panics.
//
// Close is bracketed the same way but records no observation. Opening
// a file with [Open], [Create], or [OpenFile] is bracketed too; [Track]
// brackets anything else the caller wants counted as in flight.
//
// Every public method calls the raw delegate directly and never a
// sibling instrumented method, so one logical operation yields exactly
// one observation. The wrappers intentionally implement neither
// io.ReaderFrom nor io.WriterTo: io.Copy through a wrapper always goes
// through the instrumented Read and Write.
package meteredio
