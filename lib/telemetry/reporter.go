// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
)

// runReporter emits a summary for each newly published report until
// ctx is done. Wake-ups that find the same sequence as the last
// reported one are ignored.
func (t *Telemetry) runReporter(ctx context.Context) {
	var lastSequence uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.notify:
		}

		published := t.published.Load()
		if published == nil || published.Sequence == lastSequence {
			continue
		}
		lastSequence = published.Sequence
		t.report(ctx, published)
	}
}

// report logs one published report and hands its summary to the sinks.
// A panic is logged and swallowed so the reporter keeps running.
func (t *Telemetry) report(ctx context.Context, published *PublishedReport) {
	defer func() {
		if recovered := recover(); recovered != nil {
			t.logger.Error("throughput report failed",
				"stream", t.name,
				"sequence", published.Sequence,
				"panic", fmt.Sprint(recovered),
			)
		}
	}()

	for index, slot := range published.Report.Slots {
		if slot.Overflowed() {
			t.logger.Warn("circular buffer overflowed, skipping timestep",
				"stream", t.name,
				"sequence", published.Sequence,
				"timestep", index,
			)
		}
	}

	summary, ok, err := Summarize(t.name, published, t.timestepPeriod)
	if err != nil {
		t.logger.Error("throughput report failed",
			"stream", t.name,
			"sequence", published.Sequence,
			"error", err,
		)
		return
	}
	if !ok {
		return
	}

	t.logger.Info("throughput report",
		"stream", summary.Stream,
		"published_at", summary.PublishedAt,
		"sequence", summary.Sequence,
		"valid_timesteps", summary.ValidTimesteps,
		"skipped_timesteps", summary.SkippedTimesteps(),
		"min_kbps", summary.MinThroughput,
		"max_kbps", summary.MaxThroughput,
		"avg_kbps", summary.AvgThroughput,
		"p50_kbps", summary.P50Throughput,
		"p90_kbps", summary.P90Throughput,
		"p99_kbps", summary.P99Throughput,
		"min_pending", summary.MinPending,
		"max_pending", summary.MaxPending,
		"avg_pending", summary.AvgPending,
		"operations_completed", summary.OperationsCompleted,
	)

	for _, sink := range t.sinks {
		if err := sink.Emit(ctx, summary); err != nil {
			t.logger.Warn("report sink failed",
				"stream", t.name,
				"sequence", summary.Sequence,
				"error", err,
			)
		}
	}
}
