// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"strings"
	"testing"
	"time"
)

func TestSummarizeValidSlotsOnly(t *testing.T) {
	published := publishedReport(7, 42,
		Slot{BytesTransferred: 1024, OperationsPending: 4},
		overflowSlot,
		Slot{BytesTransferred: 256, OperationsPending: 0},
		overflowSlot,
		Slot{BytesTransferred: 768, OperationsPending: 2},
	)

	summary, ok, err := Summarize("write", published, time.Second)
	if err != nil || !ok {
		t.Fatalf("Summarize = %v, %v; want a summary", ok, err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"MinThroughput", summary.MinThroughput, 0.25},
		{"MaxThroughput", summary.MaxThroughput, 1},
		{"AvgThroughput", summary.AvgThroughput, (256.0 + 768 + 1024) / 3 / 1024},
		{"P50Throughput", summary.P50Throughput, 0.75},
		{"P90Throughput", summary.P90Throughput, 1},
		{"P99Throughput", summary.P99Throughput, 1},
		{"AvgPending", summary.AvgPending, 2},
	}
	for _, check := range checks {
		if !approxEqual(check.got, check.want) {
			t.Errorf("%s = %v, want %v", check.name, check.got, check.want)
		}
	}
	if summary.MinPending != 0 || summary.MaxPending != 4 {
		t.Errorf("pending min/max = %d/%d, want 0/4", summary.MinPending, summary.MaxPending)
	}
	if summary.OperationsCompleted != 42 {
		t.Errorf("OperationsCompleted = %d, want 42", summary.OperationsCompleted)
	}
	if summary.Timesteps != 5 || summary.ValidTimesteps != 3 || summary.SkippedTimesteps() != 2 {
		t.Errorf("timesteps = %d total, %d valid, %d skipped, want 5, 3, 2",
			summary.Timesteps, summary.ValidTimesteps, summary.SkippedTimesteps())
	}
	if summary.Stream != "write" || summary.Sequence != 7 || !summary.PublishedAt.Equal(published.PublishedAt) {
		t.Errorf("identity = %q #%d at %v", summary.Stream, summary.Sequence, summary.PublishedAt)
	}
}

func TestSummarizeScalesByTimestepPeriod(t *testing.T) {
	published := publishedReport(1, 1, Slot{BytesTransferred: 1024})
	summary, ok, err := Summarize("read", published, 500*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Summarize = %v, %v; want a summary", ok, err)
	}
	// 1 KB in half a second.
	if !approxEqual(summary.AvgThroughput, 2) {
		t.Errorf("AvgThroughput = %v, want 2", summary.AvgThroughput)
	}
}

func TestSummarizePendingIgnoresOverflowSlots(t *testing.T) {
	// The overflow sentinel replaces the pending sample too, so a high
	// pending count during an overflowed timestep never shows up.
	published := publishedReport(1, 3,
		Slot{BytesTransferred: 100, OperationsPending: 1},
		overflowSlot,
	)
	summary, ok, err := Summarize("read", published, time.Second)
	if err != nil || !ok {
		t.Fatalf("Summarize = %v, %v; want a summary", ok, err)
	}
	if summary.MinPending != 1 || summary.MaxPending != 1 || summary.AvgPending != 1 {
		t.Errorf("pending = %d/%d/%v, want 1/1/1", summary.MinPending, summary.MaxPending, summary.AvgPending)
	}
}

func TestSummarizePercentilesStayWithinRange(t *testing.T) {
	const (
		blockSize = 128 * 1024
		capacity  = 1_000_000
	)
	tests := []struct {
		name  string
		sums  []int64
		exact bool // every percentile equals the single distinct value
	}{
		{"2 KiB", []int64{2048, 2048}, true},
		{"4 KiB", []int64{4096, 4096}, true},
		{"64 KiB", []int64{64 * 1024, 64 * 1024}, true},
		{"1 MiB", []int64{1 << 20, 1 << 20}, true},
		{"between buckets", []int64{100001, 100001}, true},
		{"one copy buffer", []int64{blockSize}, true},
		{"mixed power-of-two blocks", []int64{0, 2048, 4096, 65536, blockSize, 1 << 20}, false},
		{"full buffer of copy blocks", []int64{blockSize, capacity * blockSize, 3 * blockSize}, false},
		{"full buffer of one-byte writes", []int64{capacity, capacity / 2, 1}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			slots := make([]Slot, len(test.sums))
			for index, sum := range test.sums {
				slots[index] = Slot{BytesTransferred: sum}
			}
			summary, ok, err := Summarize("read", publishedReport(1, 1, slots...), time.Second)
			if err != nil || !ok {
				t.Fatalf("Summarize = %v, %v; want a summary", ok, err)
			}

			ordered := []struct {
				name  string
				value float64
			}{
				{"min", summary.MinThroughput},
				{"p50", summary.P50Throughput},
				{"p90", summary.P90Throughput},
				{"p99", summary.P99Throughput},
				{"max", summary.MaxThroughput},
			}
			for index := 1; index < len(ordered); index++ {
				if ordered[index].value < ordered[index-1].value {
					t.Errorf("%s = %v is below %s = %v", ordered[index].name, ordered[index].value,
						ordered[index-1].name, ordered[index-1].value)
				}
			}

			if test.exact {
				want := float64(test.sums[0]) / 1024
				for _, entry := range ordered {
					if !approxEqual(entry.value, want) {
						t.Errorf("%s = %v KB/s, want %v", entry.name, entry.value, want)
					}
				}
			}
		})
	}
}

func TestSummarizeZeroBytes(t *testing.T) {
	published := publishedReport(1, 0, Slot{}, Slot{})
	summary, ok, err := Summarize("read", published, time.Second)
	if err != nil || !ok {
		t.Fatalf("idle timesteps are valid but Summarize = %v, %v", ok, err)
	}
	if summary.MaxThroughput != 0 || summary.P99Throughput != 0 {
		t.Errorf("idle throughput max/p99 = %v/%v, want 0/0", summary.MaxThroughput, summary.P99Throughput)
	}
}

func TestSummarizeWithoutValidSlots(t *testing.T) {
	for _, published := range []*PublishedReport{
		publishedReport(1, 5, overflowSlot, overflowSlot),
		publishedReport(2, 0),
	} {
		summary, ok, err := Summarize("read", published, time.Second)
		if ok || err != nil {
			t.Errorf("sequence %d: Summarize = %+v, %v, %v; want no summary", published.Sequence, summary, ok, err)
		}
	}
}

func TestSummaryString(t *testing.T) {
	summary := Summary{
		Stream:              "read",
		PublishedAt:         time.UnixMilli(1767225600000),
		MinThroughput:       1,
		MaxThroughput:       3.456,
		AvgThroughput:       2,
		MinPending:          0,
		MaxPending:          5,
		AvgPending:          2.5,
		OperationsCompleted: 99,
	}
	line := summary.String()

	for _, want := range []string{
		"1767225600000 read:",
		"minimum xfr=1.00 KB/s",
		"maximum xfr=3.46 KB/s",
		"average xfr=2.00 KB/s",
		"maximum pending=5",
		"average pending=2.50",
		"operations_completed=99",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("String() = %q, missing %q", line, want)
		}
	}
}
