// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// DefaultBufferSize is the chunk size used when Options.BufferSize is
// zero.
const DefaultBufferSize = 128 * 1024

// Digest is a 32-byte BLAKE3 hash of copied content.
type Digest [32]byte

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Options configures [Copy].
type Options struct {
	// Compression encodes the destination. The zero value copies
	// bytes unchanged.
	Compression Compression

	// BufferSize is the size of each read. Zero means
	// DefaultBufferSize.
	BufferSize int
}

// Result describes a completed copy.
type Result struct {
	// BytesRead is the number of source bytes consumed.
	BytesRead int64

	// BytesWritten is the number of bytes written to the destination
	// after compression.
	BytesWritten int64

	// Digest is the BLAKE3 hash of the source bytes.
	Digest Digest
}

// Copy reads src to the end and writes it to dst, checking ctx before
// every chunk. On error the returned Result reflects the bytes moved
// so far and its Digest is zero.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, options Options) (Result, error) {
	bufferSize := options.BufferSize
	if bufferSize == 0 {
		bufferSize = DefaultBufferSize
	}
	if bufferSize < 0 {
		return Result{}, fmt.Errorf("buffer size must be positive, got %d", bufferSize)
	}

	counter := &countingWriter{writer: dst}
	compressor, err := NewCompressor(counter, options.Compression)
	if err != nil {
		return Result{}, err
	}

	var result Result
	hasher := blake3.New()
	buffer := make([]byte, bufferSize)
	for {
		if err := ctx.Err(); err != nil {
			compressor.Close()
			result.BytesWritten = counter.written
			return result, err
		}

		n, readErr := src.Read(buffer)
		if n > 0 {
			result.BytesRead += int64(n)
			hasher.Write(buffer[:n])
			if _, err := compressor.Write(buffer[:n]); err != nil {
				compressor.Close()
				result.BytesWritten = counter.written
				return result, fmt.Errorf("writing destination: %w", err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			compressor.Close()
			result.BytesWritten = counter.written
			return result, fmt.Errorf("reading source: %w", readErr)
		}
	}

	if err := compressor.Close(); err != nil {
		result.BytesWritten = counter.written
		return result, fmt.Errorf("flushing %s encoder: %w", options.Compression, err)
	}
	result.BytesWritten = counter.written
	copy(result.Digest[:], hasher.Sum(nil))
	return result, nil
}

// countingWriter counts bytes accepted by the destination.
type countingWriter struct {
	writer  io.Writer
	written int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	w.written += int64(n)
	return n, err
}
