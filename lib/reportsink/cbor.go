// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportsink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bureau-foundation/iometer/lib/codec"
	"github.com/bureau-foundation/iometer/lib/telemetry"
)

// CBORSink writes summaries as a CBOR sequence (RFC 8742).
type CBORSink struct {
	mu      sync.Mutex
	encoder *codec.Encoder
	closer  io.Closer
}

// NewCBORSink writes to w. Close does not close w.
func NewCBORSink(w io.Writer) *CBORSink {
	return &CBORSink{encoder: codec.NewEncoder(w)}
}

// OpenCBORFile appends to the file at path, creating it if needed.
// Close closes the file.
func OpenCBORFile(path string) (*CBORSink, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening report file: %w", err)
	}
	return &CBORSink{encoder: codec.NewEncoder(file), closer: file}, nil
}

// Emit appends one summary.
func (s *CBORSink) Emit(_ context.Context, summary telemetry.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.encoder.Encode(summary); err != nil {
		return fmt.Errorf("encoding %s summary %d: %w", summary.Stream, summary.Sequence, err)
	}
	return nil
}

// Close closes the file opened by OpenCBORFile. It is a no-op for
// sinks created with NewCBORSink.
func (s *CBORSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// ReadCBOR decodes every summary in a CBOR sequence. A truncated final
// record is an error; the summaries before it are still returned.
func ReadCBOR(r io.Reader) ([]telemetry.Summary, error) {
	decoder := codec.NewDecoder(r)
	var summaries []telemetry.Summary
	for {
		var summary telemetry.Summary
		err := decoder.Decode(&summary)
		if errors.Is(err, io.EOF) {
			return summaries, nil
		}
		if err != nil {
			return summaries, fmt.Errorf("decoding summary %d: %w", len(summaries)+1, err)
		}
		summaries = append(summaries, summary)
	}
}
