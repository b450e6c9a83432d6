// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type sampleRecord struct {
	Stream      string    `json:"stream"`
	PublishedAt time.Time `json:"published_at"`
	Sequence    uint64    `json:"sequence"`
	Average     float64   `json:"average,omitempty"`
}

func TestMarshalUnmarshalPreservesTimestamp(t *testing.T) {
	original := sampleRecord{
		Stream:      "read",
		PublishedAt: time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.UTC),
		Sequence:    9,
		Average:     12.5,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.PublishedAt.Equal(original.PublishedAt) {
		t.Errorf("PublishedAt = %v, want %v", decoded.PublishedAt, original.PublishedAt)
	}
	if decoded.Stream != original.Stream || decoded.Sequence != original.Sequence || decoded.Average != original.Average {
		t.Errorf("decoded %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := map[string]any{"stream": "write", "sequence": 3, "average": 1.5}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(record)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestEncoderDecoderSequence(t *testing.T) {
	records := []sampleRecord{
		{Stream: "read", Sequence: 1},
		{Stream: "write", Sequence: 2},
		{Stream: "read", Sequence: 3},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if got.Stream != want.Stream || got.Sequence != want.Sequence {
			t.Errorf("record %d = %+v, want %+v", i, got, want)
		}
	}

	var extra sampleRecord
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		t.Errorf("Decode past end = %v, want io.EOF", err)
	}
}

func TestUnmarshalIntoAnyYieldsStringKeys(t *testing.T) {
	data, err := Marshal(sampleRecord{Stream: "read", Sequence: 4})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if fields["stream"] != "read" {
		t.Errorf("stream = %v, want read", fields["stream"])
	}
}

func TestDiagnoseFirstWalksSequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, value := range []string{"first", "second"} {
		if err := encoder.Encode(value); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	remaining := buffer.Bytes()
	var items []string
	for len(remaining) > 0 {
		var notation string
		var err error
		notation, remaining, err = DiagnoseFirst(remaining)
		if err != nil {
			t.Fatalf("DiagnoseFirst: %v", err)
		}
		items = append(items, notation)
	}
	if got := strings.Join(items, ","); got != `"first","second"` {
		t.Errorf("diagnostics = %s, want \"first\",\"second\"", got)
	}
}
