/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumFileName is the manifest written next to staged files.
const ChecksumFileName = "checksums.txt"

// GenerateChecksums writes a SHA-256 manifest for the given files into
// dir. Paths in the manifest are relative to dir. The format is the
// conventional "<hex>  <path>" sha256sum layout.
func GenerateChecksums(ctx context.Context, dir string, files []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lines := make([]string, 0, len(files))
	for _, file := range files {
		sum, err := hashFile(file)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = file
		}
		lines = append(lines, fmt.Sprintf("%s  %s", sum, rel))
	}

	manifest := filepath.Join(dir, ChecksumFileName)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(manifest, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write checksum manifest: %w", err)
	}
	return nil
}

// ChecksumFilePath returns the manifest path for a workspace directory.
func ChecksumFilePath(dir string) string {
	return filepath.Join(dir, ChecksumFileName)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for checksum: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
