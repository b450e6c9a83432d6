// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the shared CBOR configuration used for report
// records.
//
// Throughput summaries leave the process in two encodings: JSON on the
// status server and CBOR in report files and NATS messages. Types carry
// only `json` tags; fxamacker/cbor falls back to them when `cbor` tags
// are absent, so one tag set names fields in both encodings.
//
// Buffers:
//
//	data, err := codec.Marshal(summary)
//	err = codec.Unmarshal(data, &summary)
//
// Streams (a report file is a CBOR sequence, RFC 8742):
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
package codec
