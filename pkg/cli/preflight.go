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

	"github.com/NVIDIA/skiff/pkg/preflight"
)

func preflightCmd() *cli.Command {
	return &cli.Command{
		Name:                  "preflight",
		EnableShellCompletion: true,
		Usage:                 "Check host prerequisites for a deployment target",
		Description: `Run the installation-prerequisite checks for a deployment target
on the local host:

  compose     - docker.service active, docker compose >= 2.0
  kubernetes  - containerd.service active, overlay and br_netfilter
                kernel modules loaded, ip_forward and
                bridge-nf-call-iptables sysctls enabled, swap off

Checks run in parallel. A host where systemd is unreachable reports
those checks as skipped and the overall status as partial.

# Examples

Check a compose deployment host:
  skiff preflight

Check a kubernetes node before install:
  skiff preflight --target kubernetes

Check with a different container runtime unit:
  skiff preflight --unit podman.service

Write the result document for the install ticket:
  skiff preflight --target kubernetes -o preflight.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Deployment target profile (supported values: compose, kubernetes)",
				Value:   string(preflight.TargetCompose),
			},
			&cli.StringSliceFlag{
				Name:  "unit",
				Usage: "Systemd unit that must be active (can be repeated, overrides the target default)",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			target, err := preflight.ParseTarget(cmd.String("target"))
			if err != nil {
				return err
			}

			checker := &preflight.Checker{
				Target:  target,
				Units:   cmd.StringSlice("unit"),
				Version: version,
			}

			result, err := checker.Run(ctx)
			if err != nil {
				return fmt.Errorf("preflight failed: %w", err)
			}

			if err := writeDocument(ctx, cmd, cmd.String("output"), result); err != nil {
				return fmt.Errorf("failed to write preflight result: %w", err)
			}

			slog.Info("preflight completed",
				"target", target,
				"status", result.Summary.Status,
				"passed", result.Summary.Passed,
				"failed", result.Summary.Failed,
				"skipped", result.Summary.Skipped,
			)

			if !result.Passed() {
				return &exitError{code: 1,
					message: fmt.Sprintf("preflight failed: %d check(s) did not pass", result.Summary.Failed)}
			}
			return nil
		},
	}
}
