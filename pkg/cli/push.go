/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/skiff/pkg/oci"
)

func pushCmd() *cli.Command {
	return &cli.Command{
		Name:                  "push",
		EnableShellCompletion: true,
		Usage:                 "Push a directory to an OCI registry as a deploy bundle",
		Description: `Package a directory as a single-layer OCI artifact and push it with
ORAS. Credentials come from the local Docker credential store, the
same store the pipeline's registry-login stage probes.

This is the standalone form of the pipeline's bundle-push step: useful
for archiving compose files, env files, and run reports as a versioned
artifact next to the image.

# Examples

Push the deploy directory tagged with the build number:
  skiff push --source ./deploy --registry ghcr.io --repository nvidia/web-deploy --tag 42

Push to a local registry over HTTP:
  skiff push --source ./deploy --registry localhost:5000 --repository web-deploy --tag dev --plain-http`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Required: true,
				Usage:    "Directory containing the artifacts to push",
			},
			&cli.StringFlag{
				Name:     "registry",
				Required: true,
				Usage:    "OCI registry host (e.g., ghcr.io, localhost:5000)",
			},
			&cli.StringFlag{
				Name:     "repository",
				Required: true,
				Usage:    "OCI repository path (e.g., nvidia/web-deploy)",
			},
			&cli.StringFlag{
				Name:    "tag",
				Usage:   "OCI image tag (default: BUILD_TAG from the environment)",
				Sources: cli.EnvVars("BUILD_TAG"),
			},
			&cli.StringFlag{
				Name:  "subdir",
				Usage: "Limit the push to a subdirectory within --source",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry (for local development)",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the registry",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parsePushCmdOptions(cmd)
			if err != nil {
				return err
			}

			res, err := oci.Push(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to push bundle: %w", err)
			}

			slog.Info("bundle pushed",
				"reference", res.Reference,
				"digest", res.Digest,
			)
			fmt.Printf("pushed %s\n  digest: %s\n", res.Reference, res.Digest)
			return nil
		},
	}
}

// parsePushCmdOptions validates the registry reference and assembles push
// options.
func parsePushCmdOptions(cmd *cli.Command) (oci.PushOptions, error) {
	opts := oci.PushOptions{
		SourceDir:   cmd.String("source"),
		Registry:    cmd.String("registry"),
		Repository:  cmd.String("repository"),
		Tag:         cmd.String("tag"),
		SubDir:      cmd.String("subdir"),
		PlainHTTP:   cmd.Bool("plain-http"),
		InsecureTLS: cmd.Bool("insecure-tls"),
	}

	if opts.Tag == "" {
		return opts, fmt.Errorf("tag is required (--tag or BUILD_TAG)")
	}
	if err := oci.ValidateRegistryReference(opts.Registry, opts.Repository); err != nil {
		return opts, err
	}
	return opts, nil
}
