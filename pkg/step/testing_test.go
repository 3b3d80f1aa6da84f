/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package step

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeTool is a stand-in external binary placed first on PATH. It records
// its argv so tests can assert the exact invocation without the real tool.
type fakeTool struct {
	argvFile string
}

func newFakeTool(t *testing.T, name string) *fakeTool {
	t.Helper()

	dir := t.TempDir()
	argvFile := filepath.Join(dir, name+".argv")

	script := "#!/bin/sh\nprintf '%s\\n' \"$*\" > " + argvFile + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake %s: %v", name, err)
	}

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	return &fakeTool{argvFile: argvFile}
}

// invocation returns the recorded argv of the last run, or fails the test
// when the tool was never invoked.
func (f *fakeTool) invocation(t *testing.T) string {
	t.Helper()

	data, err := os.ReadFile(f.argvFile)
	if err != nil {
		t.Fatalf("fake tool was not invoked: %v", err)
	}
	return strings.TrimSpace(string(data))
}
