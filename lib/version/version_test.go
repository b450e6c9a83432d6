// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	savedCommit, savedDirty, savedTime, savedVersion := GitCommit, GitDirty, BuildTime, Version
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = savedCommit, savedDirty, savedTime, savedVersion
	})

	GitCommit, BuildTime, Version = "abc1234", "2026-10-01T00:00:00Z", "1.2.3"

	GitDirty = "false"
	if got, want := Info(), "1.2.3 (abc1234, 2026-10-01T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "true"
	if got, want := Info(), "1.2.3 (abc1234-dirty, 2026-10-01T00:00:00Z)"; got != want {
		t.Errorf("Info() dirty = %q, want %q", got, want)
	}
}

func TestPrint(t *testing.T) {
	var buffer bytes.Buffer
	Print(&buffer, "bureau-iometer")

	output := buffer.String()
	if !strings.HasPrefix(output, "bureau-iometer "+Info()) {
		t.Errorf("Print output %q does not start with binary name and Info()", output)
	}
	if !strings.Contains(output, runtime.Version()) {
		t.Errorf("Print output %q missing Go version", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Print output does not end with a newline")
	}
}
