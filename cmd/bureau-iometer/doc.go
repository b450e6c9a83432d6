// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Bureau-iometer copies files through metered streams and reports
// their throughput.
//
// Every read of a source file is recorded on the "read" telemetry
// stream and every write of a destination file on the "write" stream.
// Each stream publishes a report per report period; the reporter logs
// a summary line and forwards it to the sinks named in the config
// file (a CBOR sequence file, a NATS subject, and the status server).
//
//	bureau-iometer copy [flags] SRC... DSTDIR
//	bureau-iometer decode [--raw | --json] FILE
//	bureau-iometer status [--watch] ADDR [STREAM...]
//	bureau-iometer --version
//
// The config file is taken from --config, then from IOMETER_CONFIG;
// without either the built-in defaults apply (one-second timesteps,
// one-minute reports, no sinks).
package main
