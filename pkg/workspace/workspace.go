/*
Copyright © 2025 NVIDIA Corporation

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// shortIDLen is how much of the run ID ends up in the directory name.
const shortIDLen = 8

// Workspace is one run's scratch directory.
type Workspace struct {
	dir string
}

// DefaultRoot returns the default workspace root under the user cache
// directory.
func DefaultRoot() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache dir: %w", err)
	}
	return filepath.Join(cache, "skiff"), nil
}

// New creates the run directory <root>/<job>-<build>-<run8>. An empty root
// selects DefaultRoot.
func New(root, job, build, runID string) (*Workspace, error) {
	if job == "" {
		return nil, fmt.Errorf("job name is required")
	}
	if build == "" {
		return nil, fmt.Errorf("build number is required")
	}

	if root == "" {
		var err error
		root, err = DefaultRoot()
		if err != nil {
			return nil, err
		}
	}

	dir := filepath.Join(root, fmt.Sprintf("%s-%s-%s",
		sanitizeName(job), sanitizeName(build), ShortID(runID)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}

	slog.Debug("workspace created", "dir", dir)

	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins elements under the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.dir}, elem...)...)
}

// Stage copies the given files into the workspace (flattened to their base
// names) and writes the checksum manifest covering them. It returns the
// staged absolute paths in input order, manifest excluded.
func (w *Workspace) Stage(ctx context.Context, paths ...string) ([]string, error) {
	staged := make([]string, 0, len(paths))
	for _, src := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dst := filepath.Join(w.dir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		staged = append(staged, dst)
	}

	if err := GenerateChecksums(ctx, w.dir, staged); err != nil {
		return nil, err
	}

	slog.Debug("workspace staged",
		"dir", w.dir,
		"files", len(staged),
	)

	return staged, nil
}

// Cleanup removes the workspace directory. Calling it on an already
// removed workspace is not an error.
func (w *Workspace) Cleanup() error {
	if w == nil || w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.dir, err)
	}
	slog.Debug("workspace removed", "dir", w.dir)
	return nil
}

// ShortID truncates a run ID for use in directory names.
func ShortID(runID string) string {
	if len(runID) <= shortIDLen {
		return runID
	}
	return runID[:shortIDLen]
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	fi, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory, stage files individually", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
