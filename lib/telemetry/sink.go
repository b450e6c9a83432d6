// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "context"

// Sink receives every emitted [Summary]. Emit is called from the
// reporter goroutine, one summary at a time, so a slow sink delays
// later reports (which then coalesce) but never an instrumented caller.
// A returned error is logged and otherwise ignored.
type Sink interface {
	Emit(ctx context.Context, summary Summary) error
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, summary Summary) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, summary Summary) error {
	return f(ctx, summary)
}
