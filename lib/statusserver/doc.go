// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statusserver serves read-only JSON views of live telemetry
// streams over HTTP, plus a WebSocket feed of new summaries.
//
// Routes:
//
//	GET /api/v1/streams                    stream names
//	GET /api/v1/streams/{stream}/report    latest published report
//	GET /api/v1/streams/{stream}/summary   latest summary
//	GET /api/v1/streams/{stream}/watch     WebSocket, one JSON summary per message
//
// Summaries reach the server through a [Hub], which is a telemetry.Sink
// and must be listed in the streams' Config.Sinks. The server has no
// authentication and no history: it only ever shows the most recent
// report of each stream.
package statusserver
