// Package oci provides functionality for pushing deploy bundles to OCI-compliant registries.
//
// This package lets the bundle-push stage publish a run's deploy bundle (compose
// file, env file, checksums) to any OCI-compliant registry (Docker Hub, GHCR,
// ECR, local registries, etc.) using the ORAS (OCI Registry As Storage) library,
// and backs the registry-login stage with a credential probe against the same
// registry the image stages will push to.
//
// # Overview
//
// The package provides three operations:
//   - Push: Packages a directory as an OCI artifact and pushes it to a registry
//   - Login: Probes registry reachability and credentials before any push
//   - ParseOutputTarget: Resolves an output target to a registry reference or local path
//
// # Usage
//
// Push a bundle directory:
//
//	result, err := oci.Push(ctx, oci.PushOptions{
//	    SourceDir:  workspaceDir,
//	    SubDir:     "bundle",
//	    Registry:   "ghcr.io",
//	    Repository: "nvidia/web",
//	    Tag:        "42",
//	})
//
// Probe credentials before the pipeline spends minutes building:
//
//	login, err := oci.Login(ctx, oci.LoginOptions{Registry: "ghcr.io"})
//
// # Configuration
//
// PushOptions supports:
//   - SubDir: Push only a subdirectory while preserving its path in the artifact
//   - PlainHTTP: Use HTTP instead of HTTPS (for local development registries)
//   - InsecureTLS: Skip TLS certificate verification
//   - ReproducibleTimestamp: Set a fixed created annotation for reproducible artifacts
//
// # Authentication
//
// Credentials are loaded from the standard Docker configuration
// (~/.docker/config.json) via the ORAS credentials package, including
// credential helpers. No skiff-specific credential storage exists.
//
// # Artifact Type
//
// Artifacts are pushed with the media type "application/vnd.nvidia.skiff.bundle".
// This distinguishes deploy bundles from runnable container images; consumers
// that don't understand the type should treat the artifact as an opaque blob.
package oci
