// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/iometer/lib/clock"
)

// Telemetry collects observations for one stream and publishes a
// throughput report every report period.
//
// OperationPending, OperationComplete, and AddObservation are the
// recording surface used by instrumented streams. They are safe for
// concurrent use and never fail.
type Telemetry struct {
	name               string
	logger             *slog.Logger
	clock              clock.Clock
	timestepPeriod     time.Duration
	timestepsPerReport int
	alignment          time.Duration
	sinks              []Sink

	buffer  *ObservationBuffer
	pending PendingCounter

	published atomic.Pointer[PublishedReport]
	// notify wakes the reporter after a publish. Capacity 1 with a
	// non-blocking send: a wake-up is never lost, bursts coalesce.
	notify chan struct{}

	done chan struct{}
}

// New validates config, starts the aggregation and reporter goroutines,
// and returns immediately. Both goroutines run until ctx is cancelled.
//
// A ReportPeriod that is not a multiple of TimestepPeriod is truncated
// to whole timesteps and logged as a warning, unless StrictPeriods is
// set, in which case New returns an error.
func New(ctx context.Context, config Config) (*Telemetry, error) {
	config = config.withDefaults()
	timestepsPerReport, err := config.validate()
	if err != nil {
		return nil, fmt.Errorf("telemetry %q: %w", config.Name, err)
	}

	t := newTelemetry(config, timestepsPerReport)
	if remainder := config.ReportPeriod % config.TimestepPeriod; remainder != 0 {
		t.logger.Warn("report period is not a multiple of timestep period, truncating",
			"stream", t.name,
			"report_period", config.ReportPeriod,
			"timestep_period", config.TimestepPeriod,
			"timesteps_per_report", timestepsPerReport,
			"truncated", remainder,
		)
	}
	t.start(ctx)
	return t, nil
}

// newTelemetry builds a Telemetry from a validated config without
// starting its goroutines.
func newTelemetry(config Config, timestepsPerReport int) *Telemetry {
	return &Telemetry{
		name:               config.Name,
		logger:             config.Logger,
		clock:              config.Clock,
		timestepPeriod:     config.TimestepPeriod,
		timestepsPerReport: timestepsPerReport,
		alignment:          config.Alignment,
		sinks:              config.Sinks,
		buffer:             NewObservationBuffer(config.MaxObservationCount),
		notify:             make(chan struct{}, 1),
		done:               make(chan struct{}),
	}
}

func (t *Telemetry) start(ctx context.Context) {
	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		t.runAggregator(ctx)
	}()
	go func() {
		defer loops.Done()
		t.runReporter(ctx)
	}()
	go func() {
		loops.Wait()
		close(t.done)
	}()
}

// OperationPending marks the start of an instrumented operation.
func (t *Telemetry) OperationPending() { t.pending.Increment() }

// OperationComplete marks the end of an instrumented operation. Every
// OperationPending must be matched by exactly one OperationComplete.
func (t *Telemetry) OperationComplete() { t.pending.Decrement() }

// AddObservation records the byte count of one completed operation.
func (t *Telemetry) AddObservation(observation int64) { t.buffer.Add(observation) }

// Pending returns the number of operations currently in flight.
func (t *Telemetry) Pending() int64 { return t.pending.Load() }

// Name returns the stream name.
func (t *Telemetry) Name() string { return t.name }

// TimestepPeriod returns the configured timestep period.
func (t *Telemetry) TimestepPeriod() time.Duration { return t.timestepPeriod }

// TimestepsPerReport returns the number of slots in each report.
func (t *Telemetry) TimestepsPerReport() int { return t.timestepsPerReport }

// Latest returns the most recently published report, or nil before
// the first publish.
func (t *Telemetry) Latest() *PublishedReport { return t.published.Load() }

// Done returns a channel that is closed once both goroutines have
// exited after context cancellation.
func (t *Telemetry) Done() <-chan struct{} { return t.done }

// publish replaces the published handle and wakes the reporter.
func (t *Telemetry) publish(report *PublishedReport) {
	t.published.Store(report)
	select {
	case t.notify <- struct{}{}:
	default:
	}
}
