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
)

func lintCmd() *cli.Command {
	return &cli.Command{
		Name:                  "lint",
		EnableShellCompletion: true,
		Usage:                 "Validate a pipeline document",
		Description: `Load and validate a pipeline document: header, stage structure,
step types, and stage name uniqueness. On success the parsed document
is printed, so lint doubles as a normalizer for hand-edited files.

# Examples

Validate a local file:
  skiff lint -f pipeline.yaml

Validate and print as JSON:
  skiff lint -f pipeline.yaml --format json

Validate the built-in ship pipeline:
  skiff lint`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage: `Path/URI to the pipeline document (default: built-in ship pipeline).
	Supports: file paths, HTTP/HTTPS URLs, or ConfigMap URIs (cm://namespace/name).`,
				Sources: cli.EnvVars("SKIFF_PIPELINE"),
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadPipelineArg(cmd.String("file"))
			if err != nil {
				return err
			}

			slog.Info("pipeline is valid",
				"name", p.Name(),
				"stages", len(p.Stages),
				"post", len(p.Post),
			)

			if err := writeDocument(ctx, cmd, cmd.String("output"), p); err != nil {
				return fmt.Errorf("failed to write pipeline document: %w", err)
			}
			return nil
		},
	}
}
