// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportsink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/iometer/lib/codec"
	"github.com/bureau-foundation/iometer/lib/telemetry"
)

func sampleSummary(stream string, sequence uint64) telemetry.Summary {
	return telemetry.Summary{
		Stream:              stream,
		PublishedAt:         time.Date(2026, 5, 1, 12, 0, int(sequence), 0, time.UTC),
		Sequence:            sequence,
		TimestepPeriod:      time.Second,
		Timesteps:           60,
		ValidTimesteps:      59,
		MinThroughput:       1.5,
		MaxThroughput:       512,
		AvgThroughput:       100.25,
		P50Throughput:       90,
		P90Throughput:       400,
		P99Throughput:       510,
		MinPending:          0,
		MaxPending:          8,
		AvgPending:          2.5,
		OperationsCompleted: 12345,
	}
}

// Summaries include a time.Time, so compare with Equal rather than ==.
func sameSummary(a, b telemetry.Summary) bool {
	timestampsEqual := a.PublishedAt.Equal(b.PublishedAt)
	a.PublishedAt, b.PublishedAt = time.Time{}, time.Time{}
	return timestampsEqual && a == b
}

func TestCBORSinkRoundTrip(t *testing.T) {
	var buffer bytes.Buffer
	sink := NewCBORSink(&buffer)

	want := []telemetry.Summary{
		sampleSummary("read", 1),
		sampleSummary("write", 1),
		sampleSummary("read", 2),
	}
	for _, summary := range want {
		if err := sink.Emit(context.Background(), summary); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadCBOR(&buffer)
	if err != nil {
		t.Fatalf("ReadCBOR: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("read %d summaries, want %d", len(got), len(want))
	}
	for i := range want {
		if !sameSummary(got[i], want[i]) {
			t.Errorf("summary %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOpenCBORFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.cbor")

	for sequence := uint64(1); sequence <= 2; sequence++ {
		sink, err := OpenCBORFile(path)
		if err != nil {
			t.Fatalf("OpenCBORFile: %v", err)
		}
		if err := sink.Emit(context.Background(), sampleSummary("read", sequence)); err != nil {
			t.Fatalf("Emit: %v", err)
		}
		if err := sink.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()
	summaries, err := ReadCBOR(file)
	if err != nil {
		t.Fatalf("ReadCBOR: %v", err)
	}
	if len(summaries) != 2 || summaries[0].Sequence != 1 || summaries[1].Sequence != 2 {
		t.Errorf("file holds %+v, want sequences 1 and 2", summaries)
	}
}

func TestOpenCBORFileMissingDirectory(t *testing.T) {
	if _, err := OpenCBORFile(filepath.Join(t.TempDir(), "missing", "reports.cbor")); err == nil {
		t.Error("OpenCBORFile succeeded in a missing directory")
	}
}

func TestCBORSinkConcurrentStreams(t *testing.T) {
	var buffer bytes.Buffer
	sink := NewCBORSink(&buffer)

	var wg sync.WaitGroup
	for _, stream := range []string{"read", "write", "open", "close"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sequence := uint64(1); sequence <= 25; sequence++ {
				if err := sink.Emit(context.Background(), sampleSummary(stream, sequence)); err != nil {
					t.Errorf("Emit: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	summaries, err := ReadCBOR(&buffer)
	if err != nil {
		t.Fatalf("ReadCBOR: %v", err)
	}
	if len(summaries) != 100 {
		t.Errorf("read %d interleaved summaries, want 100", len(summaries))
	}
}

func TestReadCBORTruncated(t *testing.T) {
	var buffer bytes.Buffer
	sink := NewCBORSink(&buffer)
	for sequence := uint64(1); sequence <= 2; sequence++ {
		if err := sink.Emit(context.Background(), sampleSummary("read", sequence)); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	truncated := buffer.Bytes()[:buffer.Len()-3]

	summaries, err := ReadCBOR(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("ReadCBOR accepted a truncated record")
	}
	if !strings.Contains(err.Error(), "decoding summary 2") {
		t.Errorf("error = %v, want it to name summary 2", err)
	}
	if len(summaries) != 1 {
		t.Errorf("returned %d complete summaries, want 1", len(summaries))
	}
}

// recordingPublisher stands in for *nats.Conn.
type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestNATSSinkPublishesPerStream(t *testing.T) {
	publisher := &recordingPublisher{}
	sink := NewNATSSink(publisher, "iometer.reports")

	for _, summary := range []telemetry.Summary{sampleSummary("read", 1), sampleSummary("write", 1)} {
		if err := sink.Emit(context.Background(), summary); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	if len(publisher.subjects) != 2 ||
		publisher.subjects[0] != "iometer.reports.read" ||
		publisher.subjects[1] != "iometer.reports.write" {
		t.Fatalf("subjects = %v", publisher.subjects)
	}

	var decoded telemetry.Summary
	if err := codec.Unmarshal(publisher.payloads[1], &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !sameSummary(decoded, sampleSummary("write", 1)) {
		t.Errorf("payload decoded to %+v", decoded)
	}

	if err := sink.Close(); err != nil {
		t.Errorf("Close on a borrowed publisher: %v", err)
	}
}

func TestNATSSinkWrapsPublishErrors(t *testing.T) {
	errNoResponders := errors.New("connection closed")
	sink := NewNATSSink(&recordingPublisher{err: errNoResponders}, "iometer")

	err := sink.Emit(context.Background(), sampleSummary("read", 3))
	if !errors.Is(err, errNoResponders) {
		t.Fatalf("Emit error = %v, want wrapped publisher error", err)
	}
	if !strings.Contains(err.Error(), "publishing read summary 3") {
		t.Errorf("Emit error = %q", err)
	}
}

func TestDialNATSUnreachable(t *testing.T) {
	// Port 1 on localhost refuses connections.
	logger := newDiscardLogger()
	if _, err := DialNATS("nats://127.0.0.1:1", "iometer", logger); err == nil {
		t.Fatal("DialNATS succeeded against a closed port")
	}
}
