// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the iometer binaries.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are injected at
// build time with -ldflags -X and default to "unknown" / "0.1.0-dev" in
// development builds and tests.
package version
