// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"sync"
	"testing"
)

// drainSum drains the buffer and returns the sum and overflow flag the
// drain observed.
func drainSum(buffer *ObservationBuffer) (sum int64, overflowed bool) {
	buffer.Drain(func(observations []int64, wrapped bool) {
		overflowed = wrapped
		for _, observation := range observations {
			sum += observation
		}
	})
	return sum, overflowed
}

func TestObservationBufferSumWithinCapacity(t *testing.T) {
	buffer := NewObservationBuffer(5)
	for _, observation := range []int64{100, 200, 300} {
		buffer.Add(observation)
	}

	if buffer.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", buffer.Len())
	}
	sum, overflowed := drainSum(buffer)
	if sum != 600 {
		t.Errorf("sum = %d, want 600", sum)
	}
	if overflowed {
		t.Error("overflowed = true, want false")
	}
	if buffer.Len() != 0 {
		t.Errorf("Len() after drain = %d, want 0", buffer.Len())
	}
}

func TestObservationBufferFillsExactlyToCapacity(t *testing.T) {
	buffer := NewObservationBuffer(5)
	for range 5 {
		buffer.Add(10)
	}
	if buffer.Overflowed() {
		t.Fatal("buffer overflowed at exactly its capacity")
	}
	if sum, _ := drainSum(buffer); sum != 50 {
		t.Errorf("sum = %d, want 50", sum)
	}
}

func TestObservationBufferOverflow(t *testing.T) {
	buffer := NewObservationBuffer(5)
	for i := range 7 {
		buffer.Add(10)
		if want := i >= 5; buffer.Overflowed() != want {
			t.Fatalf("after write %d: Overflowed() = %v, want %v", i+1, buffer.Overflowed(), want)
		}
	}
	// Writes six and seven wrapped to indices 0 and 1.
	if buffer.Len() != 2 {
		t.Errorf("Len() = %d, want 2", buffer.Len())
	}

	_, overflowed := drainSum(buffer)
	if !overflowed {
		t.Error("drain did not observe the overflow")
	}
	if buffer.Overflowed() || buffer.Len() != 0 {
		t.Errorf("after drain: Overflowed() = %v, Len() = %d, want false, 0", buffer.Overflowed(), buffer.Len())
	}
}

func TestObservationBufferResetsAfterEitherBranch(t *testing.T) {
	buffer := NewObservationBuffer(3)

	for range 4 {
		buffer.Add(1)
	}
	drainSum(buffer)
	buffer.Add(7)
	if sum, overflowed := drainSum(buffer); sum != 7 || overflowed {
		t.Errorf("after overflowed drain: sum = %d, overflowed = %v, want 7, false", sum, overflowed)
	}

	buffer.Add(2)
	drainSum(buffer)
	if sum, overflowed := drainSum(buffer); sum != 0 || overflowed {
		t.Errorf("after normal drain: sum = %d, overflowed = %v, want 0, false", sum, overflowed)
	}
}

func TestObservationBufferReset(t *testing.T) {
	buffer := NewObservationBuffer(2)
	for range 3 {
		buffer.Add(5)
	}
	buffer.Reset()
	if buffer.Len() != 0 || buffer.Overflowed() {
		t.Fatalf("after Reset: Len() = %d, Overflowed() = %v", buffer.Len(), buffer.Overflowed())
	}
}

func TestObservationBufferConcurrentWriters(t *testing.T) {
	const writers, perWriter = 8, 250
	buffer := NewObservationBuffer(writers * perWriter)

	var wg sync.WaitGroup
	for writer := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWriter {
				buffer.Add(int64(writer + 1))
			}
		}()
	}
	wg.Wait()

	var want int64
	for writer := range writers {
		want += int64(writer+1) * perWriter
	}
	sum, overflowed := drainSum(buffer)
	if overflowed {
		t.Fatal("buffer overflowed below capacity")
	}
	if sum != want {
		t.Errorf("sum = %d, want %d", sum, want)
	}
}

func TestNewObservationBufferRejectsNonPositiveCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewObservationBuffer(0) did not panic")
		}
	}()
	NewObservationBuffer(0)
}

func TestPendingCounter(t *testing.T) {
	var counter PendingCounter
	counter.Increment()
	counter.Increment()
	counter.Decrement()
	if counter.Load() != 1 {
		t.Errorf("Load() = %d, want 1", counter.Load())
	}
	if counter.Load() != 1 {
		t.Error("Load() reset the counter")
	}
}
