// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/iometer/lib/clock"
)

// epoch sits 30 seconds past a minute boundary so alignment waits are
// distinguishable from timesteps.
var epoch = time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)

// logCapture collects JSON log lines from concurrent goroutines.
type logCapture struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.Write(p)
}

// records returns every line logged with the given message.
func (c *logCapture) records(t *testing.T, message string) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []map[string]any
	for _, line := range bytes.Split(c.buffer.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("decoding log line %q: %v", line, err)
		}
		if record["msg"] == message {
			matched = append(matched, record)
		}
	}
	return matched
}

func newTestLogger() (*slog.Logger, *logCapture) {
	capture := &logCapture{}
	handler := slog.NewJSONHandler(capture, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), capture
}

// channelSink delivers each summary on a buffered channel.
type channelSink struct {
	summaries chan Summary
}

func (s channelSink) Emit(_ context.Context, summary Summary) error {
	s.summaries <- summary
	return nil
}

func newChannelSink() channelSink {
	return channelSink{summaries: make(chan Summary, 16)}
}

// testConfig returns a valid Config with a fake clock and a capturing
// logger: one-second timesteps, two-timestep reports, no alignment.
func testConfig(sinks ...Sink) (Config, *clock.FakeClock, *logCapture) {
	logger, capture := newTestLogger()
	fake := clock.Fake(epoch)
	return Config{
		Name:                "read",
		Logger:              logger,
		Clock:               fake,
		TimestepPeriod:      time.Second,
		ReportPeriod:        2 * time.Second,
		MaxObservationCount: 16,
		Sinks:               sinks,
	}, fake, capture
}

// unstarted builds a Telemetry whose goroutines have not been started,
// so tests can drive the aggregator and reporter directly.
func unstarted(t *testing.T, config Config) *Telemetry {
	t.Helper()
	config = config.withDefaults()
	timestepsPerReport, err := config.validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return newTelemetry(config, timestepsPerReport)
}

func approxEqual(a, b float64) bool {
	const tolerance = 1e-9
	difference := a - b
	return difference < tolerance && difference > -tolerance
}
