/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package step

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NVIDIA/skiff/pkg/oci"
	"github.com/NVIDIA/skiff/pkg/pipeline"
)

// loginProbe is swapped in tests to avoid network access.
var loginProbe = oci.Login

// pushBundle is swapped in tests to avoid network access.
var pushBundle = oci.Push

// registryLoginStep probes the target registry with the locally stored
// credentials before the pipeline spends minutes on a build that could
// never be pushed.
type registryLoginStep struct{}

func (registryLoginStep) Run(ctx context.Context, sc *Context) error {
	registry := sc.Param("registry")
	if registry == "" {
		registry = registryFromImage(sc)
	}
	if registry == "" {
		return fmt.Errorf("step parameter %q is required", "registry")
	}

	res, err := loginProbe(ctx, oci.LoginOptions{
		Registry:    registry,
		PlainHTTP:   sc.BoolParam("plain-http"),
		InsecureTLS: sc.BoolParam("insecure-tls"),
	})
	if err != nil {
		return err
	}

	slog.Info("registry login verified",
		"registry", res.Registry,
		"username", res.Username,
	)
	fmt.Fprintf(sc.out(), "login ok: %s as %s\n", res.Registry, res.Username)
	return nil
}

// bundlePushStep publishes the staged deploy bundle (compose file, env
// file, checksum manifest) as an OCI artifact.
type bundlePushStep struct{}

func (bundlePushStep) Run(ctx context.Context, sc *Context) error {
	registry, err := sc.RequireParam("registry")
	if err != nil {
		return err
	}
	repository, err := sc.RequireParam("repository")
	if err != nil {
		return err
	}
	if err := oci.ValidateRegistryReference(registry, repository); err != nil {
		return err
	}

	source := sc.Param("source")
	if source == "" {
		if sc.Workspace == nil {
			return fmt.Errorf("step parameter %q is required", "source")
		}
		source = sc.Workspace.Dir()
	}

	tag := sc.Param("tag")
	if tag == "" {
		tag = sc.EnvOr(pipeline.EnvBuildNumber, "latest")
	}

	res, err := pushBundle(ctx, oci.PushOptions{
		SourceDir:   source,
		Registry:    registry,
		Repository:  repository,
		Tag:         tag,
		PlainHTTP:   sc.BoolParam("plain-http"),
		InsecureTLS: sc.BoolParam("insecure-tls"),
	})
	if err != nil {
		return err
	}

	slog.Info("bundle pushed",
		"reference", res.Reference,
		"digest", res.Digest,
	)
	fmt.Fprintf(sc.out(), "pushed %s (%s)\n", res.Reference, res.Digest)
	return nil
}

// defaultRegistry is the Docker Hub host; the ORAS client resolves it
// to registry-1.docker.io.
const defaultRegistry = "docker.io"

// registryFromImage resolves the registry host from the stage image
// parameter or the injected IMAGE_REF ("ghcr.io/ns/app:1" -> "ghcr.io").
// References without a host segment, like the Docker Hub shorthand
// "nvidia/web:1", resolve to docker.io.
func registryFromImage(sc *Context) string {
	image := sc.Param("image")
	if image == "" {
		image = sc.EnvOr(pipeline.EnvImageRef, "")
	}
	if image == "" {
		return ""
	}
	host, rest, found := strings.Cut(image, "/")
	if !found || rest == "" {
		return defaultRegistry
	}
	if !strings.ContainsAny(host, ".:") && host != "localhost" {
		return defaultRegistry
	}
	return host
}
