// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Throughput percentiles are tracked to three significant digits.
const histogramSignificantDigits = 3

// Summary is the set of statistics emitted for one published report.
// Throughput fields are in KB/s (bytes per timestep / timestep seconds
// / 1024). All statistics except OperationsCompleted cover valid
// (non-overflowed) slots only.
type Summary struct {
	Stream      string    `json:"stream"`
	PublishedAt time.Time `json:"published_at"`
	Sequence    uint64    `json:"sequence"`

	TimestepPeriod time.Duration `json:"timestep_period"`
	Timesteps      int           `json:"timesteps"`
	ValidTimesteps int           `json:"valid_timesteps"`

	MinThroughput float64 `json:"min_throughput_kbps"`
	MaxThroughput float64 `json:"max_throughput_kbps"`
	AvgThroughput float64 `json:"avg_throughput_kbps"`
	P50Throughput float64 `json:"p50_throughput_kbps"`
	P90Throughput float64 `json:"p90_throughput_kbps"`
	P99Throughput float64 `json:"p99_throughput_kbps"`

	MinPending int64   `json:"min_pending"`
	MaxPending int64   `json:"max_pending"`
	AvgPending float64 `json:"avg_pending"`

	OperationsCompleted int64 `json:"operations_completed"`
}

// SkippedTimesteps returns the number of overflowed slots left out of
// the statistics.
func (s Summary) SkippedTimesteps() int {
	return s.Timesteps - s.ValidTimesteps
}

// String renders the summary as a single line prefixed with the
// publication time in Unix milliseconds.
func (s Summary) String() string {
	return fmt.Sprintf("%d %s: minimum xfr=%.2f KB/s; maximum xfr=%.2f KB/s; average xfr=%.2f KB/s; "+
		"p50 xfr=%.2f KB/s; p90 xfr=%.2f KB/s; p99 xfr=%.2f KB/s; "+
		"minimum pending=%d; maximum pending=%d; average pending=%.2f; operations_completed=%d",
		s.PublishedAt.UnixMilli(), s.Stream,
		s.MinThroughput, s.MaxThroughput, s.AvgThroughput,
		s.P50Throughput, s.P90Throughput, s.P99Throughput,
		s.MinPending, s.MaxPending, s.AvgPending, s.OperationsCompleted)
}

// Summarize computes the statistics of a published report. Returns
// false when the report has no valid slots, in which case nothing
// should be emitted. An error means the percentiles could not be
// computed and the report should be dropped.
//
// Overflowed slots are skipped entirely: neither their byte count nor
// their pending-operation sample contributes.
func Summarize(stream string, published *PublishedReport, timestepPeriod time.Duration) (Summary, bool, error) {
	summary := Summary{
		Stream:              stream,
		PublishedAt:         published.PublishedAt,
		Sequence:            published.Sequence,
		TimestepPeriod:      timestepPeriod,
		Timesteps:           len(published.Report.Slots),
		OperationsCompleted: published.Report.OperationsCompleted,
	}

	validBytes := make([]int64, 0, len(published.Report.Slots))
	minBytes, maxBytes, totalBytes := int64(math.MaxInt64), int64(math.MinInt64), int64(0)
	minPending, maxPending, totalPending := int64(math.MaxInt64), int64(math.MinInt64), int64(0)
	for _, slot := range published.Report.Slots {
		if slot.Overflowed() {
			continue
		}
		validBytes = append(validBytes, slot.BytesTransferred)
		minBytes = min(minBytes, slot.BytesTransferred)
		maxBytes = max(maxBytes, slot.BytesTransferred)
		totalBytes += slot.BytesTransferred
		minPending = min(minPending, slot.OperationsPending)
		maxPending = max(maxPending, slot.OperationsPending)
		totalPending += slot.OperationsPending
	}
	summary.ValidTimesteps = len(validBytes)
	if summary.ValidTimesteps == 0 {
		return summary, false, nil
	}

	valid := float64(summary.ValidTimesteps)
	summary.MinThroughput = kilobytesPerSecond(float64(minBytes), timestepPeriod)
	summary.MaxThroughput = kilobytesPerSecond(float64(maxBytes), timestepPeriod)
	summary.AvgThroughput = kilobytesPerSecond(float64(totalBytes)/valid, timestepPeriod)
	summary.MinPending = minPending
	summary.MaxPending = maxPending
	summary.AvgPending = float64(totalPending) / valid

	percentiles, err := bytePercentiles(validBytes, minBytes, maxBytes, 50, 90, 99)
	if err != nil {
		return summary, false, fmt.Errorf("summarizing %s report %d: %w", stream, published.Sequence, err)
	}
	summary.P50Throughput = kilobytesPerSecond(float64(percentiles[0]), timestepPeriod)
	summary.P90Throughput = kilobytesPerSecond(float64(percentiles[1]), timestepPeriod)
	summary.P99Throughput = kilobytesPerSecond(float64(percentiles[2]), timestepPeriod)

	return summary, true, nil
}

// bytePercentiles returns the given quantiles of values, clamped to
// [minBytes, maxBytes].
//
// The highest trackable value is twice the largest sample so that a
// power-of-two maximum still has a bucket. ValueAtQuantile reports the
// top of the matching bucket, which can lie above maxBytes.
func bytePercentiles(values []int64, minBytes, maxBytes int64, quantiles ...float64) ([]int64, error) {
	histogram := hdrhistogram.New(1, max(2*maxBytes, 2), histogramSignificantDigits)
	for _, value := range values {
		if err := histogram.RecordValue(value); err != nil {
			return nil, fmt.Errorf("recording %d bytes in throughput histogram: %w", value, err)
		}
	}
	results := make([]int64, len(quantiles))
	for index, quantile := range quantiles {
		results[index] = min(max(histogram.ValueAtQuantile(quantile), minBytes), maxBytes)
	}
	return results, nil
}

func kilobytesPerSecond(bytes float64, period time.Duration) float64 {
	return bytes / period.Seconds() / 1024
}
