// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reportsink delivers throughput summaries outside the process.
//
// [CBORSink] appends each summary to a file (or any writer) as one item
// of a CBOR sequence; [ReadCBOR] reads such a file back. [NATSSink]
// publishes each summary, CBOR-encoded, to a NATS subject per stream.
// Both implement telemetry.Sink and are safe to share between streams.
//
// Records are encoded with lib/codec, so field names match the JSON
// served by the status server.
package reportsink
