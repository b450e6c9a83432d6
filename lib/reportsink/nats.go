// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportsink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bureau-foundation/iometer/lib/codec"
	"github.com/bureau-foundation/iometer/lib/telemetry"
)

// Publisher is the subset of *nats.Conn used by [NATSSink].
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each summary to "<prefix>.<stream>".
type NATSSink struct {
	publisher Publisher
	prefix    string
	conn      *nats.Conn
}

// NewNATSSink publishes through an existing connection or publisher.
// Close does not close it.
func NewNATSSink(publisher Publisher, prefix string) *NATSSink {
	return &NATSSink{publisher: publisher, prefix: prefix}
}

// DialNATS connects to the server at url and returns a sink that owns
// the connection. Reconnects are retried indefinitely; disconnects are
// logged.
func DialNATS(url, prefix string, logger *slog.Logger) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("bureau-iometer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "url", url, "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats reconnected", "url", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	logger.Info("connected to nats", "url", url, "subject_prefix", prefix)
	return &NATSSink{publisher: conn, prefix: prefix, conn: conn}, nil
}

// Subject returns the subject summaries of stream are published to.
func (s *NATSSink) Subject(stream string) string {
	return s.prefix + "." + stream
}

// Emit publishes one summary.
func (s *NATSSink) Emit(_ context.Context, summary telemetry.Summary) error {
	data, err := codec.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding %s summary %d: %w", summary.Stream, summary.Sequence, err)
	}
	if err := s.publisher.Publish(s.Subject(summary.Stream), data); err != nil {
		return fmt.Errorf("publishing %s summary %d: %w", summary.Stream, summary.Sequence, err)
	}
	return nil
}

// Close drains the connection opened by DialNATS, delivering any
// buffered messages first.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
