/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"context"
	"fmt"
	"log/slog"

	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// LoginOptions configures the registry credential probe.
type LoginOptions struct {
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// LoginResult reports a successful credential probe.
type LoginResult struct {
	// Registry is the probed registry host.
	Registry string
	// Username is the Docker-store identity used, or "anonymous".
	Username string
}

// Login verifies that the registry is reachable and that the locally stored
// Docker credentials (if any) are accepted, by pinging the registry v2 API
// through the same auth client the push path uses. Running this up front
// fails the pipeline before minutes are spent building an image that could
// never be pushed.
func Login(ctx context.Context, opts LoginOptions) (*LoginResult, error) {
	host := stripProtocol(opts.Registry)
	if host == "" {
		return nil, fmt.Errorf("registry is required for login probe")
	}

	reg, err := remote.NewRegistry(host)
	if err != nil {
		return nil, fmt.Errorf("invalid registry host %q: %w", host, err)
	}
	reg.PlainHTTP = opts.PlainHTTP
	reg.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	if err := reg.Ping(ctx); err != nil {
		return nil, fmt.Errorf("registry ping failed for %s: %w", host, err)
	}

	// The store reports which identity the ping used; purely informational
	username := "anonymous"
	if credStore, storeErr := credentials.NewStoreFromDocker(credentials.StoreOptions{}); storeErr == nil {
		if cred, credErr := credStore.Get(ctx, host); credErr == nil && cred.Username != "" {
			username = cred.Username
		}
	}

	slog.Debug("registry login probe succeeded",
		"registry", host,
		"username", username,
	)

	return &LoginResult{
		Registry: host,
		Username: username,
	}, nil
}
