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

	"github.com/NVIDIA/skiff/pkg/cluster"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:                  "verify",
		EnableShellCompletion: true,
		Usage:                 "Verify a Kubernetes cluster is healthy",
		Description: `Run the operational cluster checks against a Kubernetes cluster:

  - Server version, optionally gated by --min-version
  - Control plane reachability via /readyz
  - Node readiness and kubelet versions

All operations are read-only. The result is a document suitable for
archiving alongside run results.

# Examples

Verify the current kubeconfig context:
  skiff verify

Require a minimum server version:
  skiff verify --min-version 1.28

Write the result to a ConfigMap for in-cluster reporting:
  skiff verify -o cm://skiff/verify-result`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "min-version",
				Usage: "Minimum acceptable Kubernetes server version (e.g., 1.28 or v1.28.3)",
			},
			kubeconfigFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			v, err := cluster.NewVerifier(cmd.String("kubeconfig"), cmd.String("min-version"), version)
			if err != nil {
				return fmt.Errorf("failed to create cluster client: %w", err)
			}

			result, err := v.Verify(ctx)
			if err != nil {
				return fmt.Errorf("cluster verification failed: %w", err)
			}

			if err := writeDocument(ctx, cmd, cmd.String("output"), result); err != nil {
				return fmt.Errorf("failed to write verify result: %w", err)
			}

			slog.Info("verify completed",
				"serverVersion", result.ServerVersion,
				"status", result.Summary.Status,
				"passed", result.Summary.Passed,
				"failed", result.Summary.Failed,
				"skipped", result.Summary.Skipped,
			)

			if !result.Passed() {
				return &exitError{code: 1,
					message: fmt.Sprintf("cluster verification failed: %d check(s) did not pass", result.Summary.Failed)}
			}
			return nil
		},
	}
}
