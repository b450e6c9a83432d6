// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/iometer/lib/clock"
)

// Defaults applied by [New] to zero-valued [Config] fields.
const (
	DefaultTimestepPeriod      = time.Second
	DefaultReportPeriod        = time.Minute
	DefaultMaxObservationCount = 1_000_000

	// DefaultAlignment is not applied automatically: a zero Alignment
	// disables alignment. lib/config uses it as the file default.
	DefaultAlignment = time.Minute
)

// Config holds the parameters for a [Telemetry].
type Config struct {
	// Name identifies the stream in log lines and summaries ("read",
	// "write"). Required.
	Name string

	// Logger receives report lines and overflow warnings. Required.
	Logger *slog.Logger

	// Clock drives the timestep and alignment sleeps and stamps
	// publications. Production callers pass clock.Real(); tests pass
	// clock.Fake(). Required.
	Clock clock.Clock

	// TimestepPeriod is how often the observation buffer is drained
	// into a slot. Zero means DefaultTimestepPeriod.
	TimestepPeriod time.Duration

	// ReportPeriod is how often a completed report is published. The
	// number of slots per report is ReportPeriod/TimestepPeriod,
	// truncated. Zero means DefaultReportPeriod.
	ReportPeriod time.Duration

	// MaxObservationCount is the observation buffer capacity. It must
	// exceed the number of operations expected within one timestep or
	// those timesteps are reported as overflowed. Zero means
	// DefaultMaxObservationCount.
	MaxObservationCount int

	// Alignment delays the first timestep until the next multiple of
	// Alignment on the wall clock, and discards observations recorded
	// during the delay. Zero starts immediately.
	Alignment time.Duration

	// StrictPeriods rejects a ReportPeriod that is not an exact
	// multiple of TimestepPeriod instead of truncating it.
	StrictPeriods bool

	// Sinks receive every emitted summary, in order, after the log
	// line is written.
	Sinks []Sink
}

// withDefaults returns a copy of c with zero periods and capacity
// replaced by their defaults.
func (c Config) withDefaults() Config {
	if c.TimestepPeriod == 0 {
		c.TimestepPeriod = DefaultTimestepPeriod
	}
	if c.ReportPeriod == 0 {
		c.ReportPeriod = DefaultReportPeriod
	}
	if c.MaxObservationCount == 0 {
		c.MaxObservationCount = DefaultMaxObservationCount
	}
	return c
}

// validate checks a defaulted Config and returns the number of
// timesteps per report.
func (c Config) validate() (int, error) {
	var errs []error

	if c.Name == "" {
		errs = append(errs, errors.New("Name is required"))
	}
	if c.Logger == nil {
		errs = append(errs, errors.New("Logger is required"))
	}
	if c.Clock == nil {
		errs = append(errs, errors.New("Clock is required"))
	}
	if c.TimestepPeriod < 0 {
		errs = append(errs, fmt.Errorf("TimestepPeriod must be positive, got %v", c.TimestepPeriod))
	}
	if c.ReportPeriod < 0 {
		errs = append(errs, fmt.Errorf("ReportPeriod must be positive, got %v", c.ReportPeriod))
	}
	if c.MaxObservationCount < 0 {
		errs = append(errs, fmt.Errorf("MaxObservationCount must be positive, got %d", c.MaxObservationCount))
	}
	if c.Alignment < 0 {
		errs = append(errs, fmt.Errorf("Alignment must not be negative, got %v", c.Alignment))
	}
	for i, sink := range c.Sinks {
		if sink == nil {
			errs = append(errs, fmt.Errorf("Sinks[%d] is nil", i))
		}
	}

	timestepsPerReport := 0
	if c.TimestepPeriod > 0 && c.ReportPeriod > 0 {
		timestepsPerReport = int(c.ReportPeriod / c.TimestepPeriod)
		switch {
		case timestepsPerReport < 1:
			errs = append(errs, fmt.Errorf("ReportPeriod %v is shorter than TimestepPeriod %v", c.ReportPeriod, c.TimestepPeriod))
		case c.StrictPeriods && c.ReportPeriod%c.TimestepPeriod != 0:
			errs = append(errs, fmt.Errorf("ReportPeriod %v is not a multiple of TimestepPeriod %v", c.ReportPeriod, c.TimestepPeriod))
		}
	}

	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}
	return timestepsPerReport, nil
}
