// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statusserver

import (
	"context"
	"sync"

	"github.com/bureau-foundation/iometer/lib/telemetry"
)

// Hub keeps the latest summary of each stream and fans new summaries
// out to subscribers.
//
// Each subscriber has a capacity-1 channel that always holds the newest
// undelivered summary: a slow watcher skips stale summaries instead of
// delaying the reporter.
type Hub struct {
	mu          sync.Mutex
	latest      map[string]telemetry.Summary
	subscribers map[string]map[chan telemetry.Summary]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		latest:      make(map[string]telemetry.Summary),
		subscribers: make(map[string]map[chan telemetry.Summary]struct{}),
	}
}

// Emit records summary as its stream's latest and offers it to every
// subscriber of that stream. It never blocks and never fails.
func (h *Hub) Emit(_ context.Context, summary telemetry.Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest[summary.Stream] = summary
	for subscriber := range h.subscribers[summary.Stream] {
		offerLatest(subscriber, summary)
	}
	return nil
}

// Latest returns the most recent summary of stream.
func (h *Hub) Latest(stream string) (telemetry.Summary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	summary, ok := h.latest[stream]
	return summary, ok
}

// Subscribe returns a channel receiving summaries of stream, primed
// with the current latest one if there is any, and a function that
// ends the subscription. The channel is never closed.
func (h *Hub) Subscribe(stream string) (<-chan telemetry.Summary, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscriber := make(chan telemetry.Summary, 1)
	if summary, ok := h.latest[stream]; ok {
		subscriber <- summary
	}
	if h.subscribers[stream] == nil {
		h.subscribers[stream] = make(map[chan telemetry.Summary]struct{})
	}
	h.subscribers[stream][subscriber] = struct{}{}

	return subscriber, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers[stream], subscriber)
		if len(h.subscribers[stream]) == 0 {
			delete(h.subscribers, stream)
		}
	}
}

// offerLatest replaces any undelivered summary in subscriber with
// summary. Callers hold the hub mutex, so there is a single sender.
func offerLatest(subscriber chan telemetry.Summary, summary telemetry.Summary) {
	select {
	case subscriber <- summary:
		return
	default:
	}
	select {
	case <-subscriber:
	default:
	}
	subscriber <- summary
}
