// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "sync/atomic"

// PendingCounter counts in-flight operations. The zero value is ready
// to use.
type PendingCounter struct {
	value atomic.Int64
}

// Increment marks one operation as started.
func (c *PendingCounter) Increment() { c.value.Add(1) }

// Decrement marks one operation as finished.
func (c *PendingCounter) Decrement() { c.value.Add(-1) }

// Load returns the current count without resetting it.
func (c *PendingCounter) Load() int64 { return c.value.Load() }
