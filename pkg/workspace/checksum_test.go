/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateChecksums(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if err := GenerateChecksums(context.Background(), dir, []string{path}); err != nil {
		t.Fatalf("GenerateChecksums() error = %v", err)
	}

	data, err := os.ReadFile(ChecksumFilePath(dir))
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}

	// sha256 of "hello\n"
	want := "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03  hello.txt\n"
	if string(data) != want {
		t.Errorf("Manifest = %q, want %q", data, want)
	}
}

func TestGenerateChecksums_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.txt", "b.txt"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		paths = append(paths, p)
	}

	if err := GenerateChecksums(context.Background(), dir, paths); err != nil {
		t.Fatalf("GenerateChecksums() error = %v", err)
	}

	data, err := os.ReadFile(ChecksumFilePath(dir))
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Manifest has %d lines, want 2:\n%s", len(lines), data)
	}
	for i, name := range []string{"a.txt", "b.txt"} {
		if !strings.HasSuffix(lines[i], "  "+name) {
			t.Errorf("Line %d = %q, want suffix %q", i, lines[i], "  "+name)
		}
	}
}

func TestGenerateChecksums_MissingFile(t *testing.T) {
	dir := t.TempDir()
	err := GenerateChecksums(context.Background(), dir, []string{filepath.Join(dir, "absent")})
	if err == nil {
		t.Error("GenerateChecksums() expected error for missing file, got nil")
	}
}

func TestGenerateChecksums_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := GenerateChecksums(ctx, t.TempDir(), nil); err == nil {
		t.Error("GenerateChecksums() expected error for canceled context, got nil")
	}
}

func TestChecksumFilePath(t *testing.T) {
	got := ChecksumFilePath("/var/lib/skiff/web-42-abc")
	want := "/var/lib/skiff/web-42-abc/checksums.txt"
	if got != want {
		t.Errorf("ChecksumFilePath() = %q, want %q", got, want)
	}
}
