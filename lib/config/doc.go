// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the iometer configuration file.
//
// Configuration comes from a single file named by either the
// IOMETER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no per-field environment
// override. Without a file, commands run on [Default].
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas allowed; anything else is YAML. Durations are strings
// in time.ParseDuration syntax ("1s", "250ms"). ${VAR} and
// ${VAR:-default} are expanded in the CBOR sink path.
//
// Key exports:
//
//   - [Config] -- telemetry periods, report sinks, status server
//   - [Default] -- one-second timesteps, one-minute reports, 1M observations
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.NewTelemetryConfig] -- conversion to telemetry.Config
package config
