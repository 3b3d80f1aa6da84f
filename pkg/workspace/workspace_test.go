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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	root := t.TempDir()

	w, err := New(root, "web", "42", "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := filepath.Join(root, "web-42-1b4e28ba")
	if w.Dir() != want {
		t.Errorf("Dir() = %q, want %q", w.Dir(), want)
	}

	fi, err := os.Stat(w.Dir())
	if err != nil {
		t.Fatalf("Workspace directory missing: %v", err)
	}
	if !fi.IsDir() {
		t.Error("Workspace path is not a directory")
	}
}

func TestNew_SanitizesNames(t *testing.T) {
	root := t.TempDir()

	w, err := New(root, "team/web app", "42", "runid")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	base := filepath.Base(w.Dir())
	if base != "team-web-app-42-runid" {
		t.Errorf("Directory name = %q, want %q", base, "team-web-app-42-runid")
	}
	if strings.ContainsAny(base, "/ ") {
		t.Errorf("Directory name %q contains unsafe characters", base)
	}
}

func TestNew_RequiredFields(t *testing.T) {
	if _, err := New(t.TempDir(), "", "42", "r"); err == nil {
		t.Error("New() expected error for empty job")
	}
	if _, err := New(t.TempDir(), "web", "", "r"); err == nil {
		t.Error("New() expected error for empty build")
	}
}

func TestPath(t *testing.T) {
	w, err := New(t.TempDir(), "web", "42", "runid")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := w.Path("bundle", "docker-compose.yaml")
	want := filepath.Join(w.Dir(), "bundle", "docker-compose.yaml")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestStage(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"docker-compose.yaml": "services:\n  web:\n    image: ghcr.io/nvidia/web:42\n",
		".env":                "REGISTRY_NAMESPACE=nvidia\n",
	}
	paths := make([]string, 0, len(files))
	for name, content := range files {
		p := filepath.Join(src, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		paths = append(paths, p)
	}

	w, err := New(t.TempDir(), "web", "42", "runid")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	staged, err := w.Stage(context.Background(), paths...)
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if len(staged) != len(paths) {
		t.Fatalf("Stage() returned %d paths, want %d", len(staged), len(paths))
	}

	for name, content := range files {
		data, readErr := os.ReadFile(w.Path(name))
		if readErr != nil {
			t.Errorf("Staged file %s missing: %v", name, readErr)
			continue
		}
		if string(data) != content {
			t.Errorf("Staged %s = %q, want %q", name, data, content)
		}
	}

	manifest, err := os.ReadFile(ChecksumFilePath(w.Dir()))
	if err != nil {
		t.Fatalf("Checksum manifest missing: %v", err)
	}
	for name := range files {
		if !strings.Contains(string(manifest), name) {
			t.Errorf("Manifest missing entry for %s:\n%s", name, manifest)
		}
	}
}

func TestStage_MissingFile(t *testing.T) {
	w, err := New(t.TempDir(), "web", "42", "runid")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = w.Stage(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("Stage() expected error for missing source, got nil")
	}
}

func TestStage_Directory(t *testing.T) {
	w, err := New(t.TempDir(), "web", "42", "runid")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = w.Stage(context.Background(), t.TempDir())
	if err == nil {
		t.Error("Stage() expected error for directory source, got nil")
	}
}

func TestStage_ContextCanceled(t *testing.T) {
	w, err := New(t.TempDir(), "web", "42", "runid")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := w.Stage(ctx, src); err == nil {
		t.Error("Stage() expected error for canceled context, got nil")
	}
}

func TestCleanup(t *testing.T) {
	w, err := New(t.TempDir(), "web", "42", "runid")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(w.Dir()); !os.IsNotExist(err) {
		t.Errorf("Workspace still present after Cleanup: %v", err)
	}

	// Second call is a no-op
	if err := w.Cleanup(); err != nil {
		t.Errorf("Cleanup() second call error = %v", err)
	}
}

func TestCleanup_Nil(t *testing.T) {
	var w *Workspace
	if err := w.Cleanup(); err != nil {
		t.Errorf("Cleanup() on nil workspace error = %v", err)
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		name  string
		runID string
		want  string
	}{
		{
			name:  "uuid",
			runID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
			want:  "1b4e28ba",
		},
		{
			name:  "short id unchanged",
			runID: "abc",
			want:  "abc",
		},
		{
			name:  "exactly eight",
			runID: "12345678",
			want:  "12345678",
		},
		{
			name:  "empty",
			runID: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortID(tt.runID); got != tt.want {
				t.Errorf("ShortID(%q) = %q, want %q", tt.runID, got, tt.want)
			}
		})
	}
}
