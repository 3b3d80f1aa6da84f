/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/content/oci"
)

func TestStripProtocol(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "https prefix",
			input:    "https://ghcr.io",
			expected: "ghcr.io",
		},
		{
			name:     "http prefix",
			input:    "http://localhost:5000",
			expected: "localhost:5000",
		},
		{
			name:     "no prefix",
			input:    "registry.example.com",
			expected: "registry.example.com",
		},
		{
			name:     "with port no prefix",
			input:    "localhost:5000",
			expected: "localhost:5000",
		},
		{
			name:     "https with path",
			input:    "https://ghcr.io/nvidia",
			expected: "ghcr.io/nvidia",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripProtocol(tt.input)
			if got != tt.expected {
				t.Errorf("stripProtocol(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPush_EmptyTag(t *testing.T) {
	_, err := Push(context.Background(), PushOptions{
		SourceDir:  "/nonexistent",
		Registry:   "localhost:5000",
		Repository: "test/repo",
		Tag:        "", // Empty tag should fail
	})

	if err == nil {
		t.Error("Push() expected error for empty tag, got nil")
	}

	expectedErr := "tag is required to push OCI image"
	if err.Error() != expectedErr {
		t.Errorf("Push() error = %q, want %q", err.Error(), expectedErr)
	}
}

func TestPush_InvalidReference(t *testing.T) {
	_, err := Push(context.Background(), PushOptions{
		SourceDir:  t.TempDir(),
		Registry:   "invalid registry with spaces",
		Repository: "test/repo",
		Tag:        "42",
	})

	if err == nil {
		t.Error("Push() expected error for invalid registry, got nil")
	}
}

func TestPush_MissingSubDir(t *testing.T) {
	_, err := Push(context.Background(), PushOptions{
		SourceDir:  t.TempDir(),
		SubDir:     "bundle",
		Registry:   "localhost:5000",
		Repository: "test/repo",
		Tag:        "42",
	})

	if err == nil {
		t.Error("Push() expected error for missing subdirectory, got nil")
	}
}

func TestPushOptions_Defaults(t *testing.T) {
	opts := PushOptions{
		SourceDir:  "/tmp/test",
		Registry:   "ghcr.io",
		Repository: "nvidia/web",
		Tag:        "42",
	}

	if opts.PlainHTTP != false {
		t.Error("PlainHTTP should default to false")
	}
	if opts.InsecureTLS != false {
		t.Error("InsecureTLS should default to false")
	}
	if opts.SubDir != "" {
		t.Error("SubDir should default to empty string")
	}
}

func TestHardLinkDir(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatalf("Failed to create nested dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "docker-compose.yaml"), []byte("services: {}\n"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "nested", ".env"), []byte("A=1\n"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "linked")
	if err := hardLinkDir(src, dst); err != nil {
		t.Fatalf("hardLinkDir() error = %v", err)
	}

	for _, rel := range []string{"docker-compose.yaml", "nested/.env"} {
		if _, err := os.Stat(filepath.Join(dst, rel)); err != nil {
			t.Errorf("Expected linked file %s: %v", rel, err)
		}
	}
}

// TestPushFlow_LocalOCILayout exercises the exact packaging flow Push uses,
// but copies into a local OCI Image Layout store instead of a remote
// registry, then unpacks the layer and verifies the bundle contents.
func TestPushFlow_LocalOCILayout(t *testing.T) {
	ctx := context.Background()

	// Stage a bundle directory the way a run workspace would look
	bundleDir := t.TempDir()
	files := map[string]string{
		"docker-compose.yaml": "services:\n  web:\n    image: ghcr.io/nvidia/web:42\n",
		".env":                "REGISTRY_NAMESPACE=nvidia\n",
		"checksums.txt":       "abc123  docker-compose.yaml\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(bundleDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to stage bundle file %s: %v", name, err)
		}
	}

	// OCI layout store as the push target
	ociLayoutDir := t.TempDir()
	ociStore, err := oci.New(ociLayoutDir)
	if err != nil {
		t.Fatalf("Failed to create OCI layout store: %v", err)
	}

	// File store from the bundle directory (same as Push does)
	fs, err := file.New(bundleDir)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	defer func() { _ = fs.Close() }()

	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, bundleDir)
	if err != nil {
		t.Fatalf("Failed to add directory to store: %v", err)
	}

	if layerDesc.MediaType != ociv1.MediaTypeImageLayerGzip {
		t.Errorf("Layer MediaType = %q, want %q", layerDesc.MediaType, ociv1.MediaTypeImageLayerGzip)
	}

	packOpts := oras.PackManifestOptions{
		Layers: []ociv1.Descriptor{layerDesc},
	}
	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		t.Fatalf("Failed to pack manifest: %v", err)
	}

	tag := "42"
	if tagErr := fs.Tag(ctx, manifestDesc, tag); tagErr != nil {
		t.Fatalf("Failed to tag manifest: %v", tagErr)
	}

	desc, err := oras.Copy(ctx, fs, tag, ociStore, tag, oras.DefaultCopyOptions)
	if err != nil {
		t.Fatalf("Failed to copy to OCI layout: %v", err)
	}

	if desc.Digest.String() == "" {
		t.Error("Pushed manifest has empty digest")
	}

	// Read back the manifest from the layout
	manifestPath := filepath.Join(ociLayoutDir, "blobs", "sha256", strings.TrimPrefix(desc.Digest.String(), "sha256:"))
	manifestData, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}

	var manifest ociv1.Manifest
	if unmarshalErr := json.Unmarshal(manifestData, &manifest); unmarshalErr != nil {
		t.Fatalf("Failed to unmarshal manifest: %v", unmarshalErr)
	}

	if manifest.ArtifactType != ArtifactType {
		t.Errorf("Manifest ArtifactType = %q, want %q", manifest.ArtifactType, ArtifactType)
	}

	if len(manifest.Layers) != 1 {
		t.Fatalf("Manifest has %d layers, want 1", len(manifest.Layers))
	}

	// Unpack the layer and verify the staged files round-tripped
	layerDigest := manifest.Layers[0].Digest.String()
	layerPath := filepath.Join(ociLayoutDir, "blobs", "sha256", strings.TrimPrefix(layerDigest, "sha256:"))
	layerFile, err := os.Open(layerPath)
	if err != nil {
		t.Fatalf("Failed to open layer: %v", err)
	}
	defer layerFile.Close()

	gzr, err := gzip.NewReader(layerFile)
	if err != nil {
		t.Fatalf("Failed to create gzip reader: %v", err)
	}
	defer gzr.Close()

	var extractedFiles []string
	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read tar entry: %v", err)
		}
		if header.Typeflag == tar.TypeReg {
			extractedFiles = append(extractedFiles, filepath.Base(header.Name))
		}
	}
	sort.Strings(extractedFiles)

	for name := range files {
		found := false
		for _, extracted := range extractedFiles {
			if extracted == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Bundle file %s missing from artifact layer, got %v", name, extractedFiles)
		}
	}
}
