// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Registry owns one [Telemetry] per stream name. All streams share the
// registry's Config (except Name) and stop when the registry's context
// is cancelled.
//
// Thread-safe: all methods may be called concurrently.
type Registry struct {
	ctx    context.Context
	config Config

	mu      sync.Mutex
	streams map[string]*Telemetry
}

// NewRegistry validates config once for all future streams. Config.Name
// is ignored; each stream takes the name passed to [Registry.Stream].
func NewRegistry(ctx context.Context, config Config) (*Registry, error) {
	config = config.withDefaults()
	config.Name = "registry"
	if _, err := config.validate(); err != nil {
		return nil, fmt.Errorf("telemetry registry: %w", err)
	}
	return &Registry{
		ctx:     ctx,
		config:  config,
		streams: make(map[string]*Telemetry),
	}, nil
}

// Stream returns the Telemetry for name, starting it on first use.
func (r *Registry) Stream(name string) (*Telemetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.streams[name]; ok {
		return existing, nil
	}

	config := r.config
	config.Name = name
	created, err := New(r.ctx, config)
	if err != nil {
		return nil, err
	}
	r.streams[name] = created
	return created, nil
}

// Lookup returns the Telemetry for name if it has been started.
func (r *Registry) Lookup(name string) (*Telemetry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.streams[name]
	return existing, ok
}

// Names returns the started stream names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.streams))
	for name := range r.streams {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Wait blocks until every started stream has stopped. Call it after
// cancelling the registry's context.
func (r *Registry) Wait() {
	r.mu.Lock()
	streams := make([]*Telemetry, 0, len(r.streams))
	for _, stream := range r.streams {
		streams = append(streams, stream)
	}
	r.mu.Unlock()

	for _, stream := range streams {
		<-stream.Done()
	}
}
