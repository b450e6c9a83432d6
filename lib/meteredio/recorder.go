// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package meteredio

import (
	"errors"
	"io"
	"sync"
)

// Recorder receives the pending/complete bracket and byte counts of
// instrumented operations. Implementations must be safe for concurrent
// use and must not block.
type Recorder interface {
	OperationPending()
	OperationComplete()
	AddObservation(observation int64)
}

// Track marks an operation performed outside the wrappers as pending
// and returns the function that completes it. Calling done more than
// once has no further effect.
//
//	done := meteredio.Track(recorder)
//	defer done()
func Track(recorder Recorder) (done func()) {
	recorder.OperationPending()
	var once sync.Once
	return func() { once.Do(recorder.OperationComplete) }
}

// observeWrite records n when a write-side call succeeded.
func observeWrite(recorder Recorder, n int, err error) {
	if err == nil {
		recorder.AddObservation(int64(n))
	}
}

// observeRead records n when a read-side call succeeded or reached the
// end of the stream.
func observeRead(recorder Recorder, n int, err error) {
	if err == nil || errors.Is(err, io.EOF) {
		recorder.AddObservation(int64(n))
	}
}
