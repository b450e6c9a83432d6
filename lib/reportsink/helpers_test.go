// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reportsink

import (
	"io"
	"log/slog"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
