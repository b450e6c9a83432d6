// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides channel assertions for tests of the
// telemetry loops.
//
// [RequireReceive], [RequireNoReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests never call time.After
// themselves. Simulated time comes from lib/clock's FakeClock; the
// timeouts here exist only to turn a hung goroutine into a test failure.
//
// All helpers call t.Fatalf on failure.
package testutil
