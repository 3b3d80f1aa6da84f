/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/runner"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Run a delivery pipeline",
		Description: `Run a pipeline document, or the built-in ship pipeline when no file
is given. The ship pipeline mirrors a CI delivery job:

  login -> build -> push -> deploy, then always clean the workspace.

Stage parameters resolve from the binding environment contract. Each
variable can come from the CI environment or from its flag:

  JOB_NAME            --job         job identity (required)
  BUILD_NUMBER        --build       build identity (required)
  REGISTRY_NAMESPACE  --registry-namespace
  DEPLOY_HOST         --deploy-host
  COMPOSE_FILE        --compose-file
  ENV_FILE            --env-file

The runner injects SKIFF_RUN_ID, BUILD_TAG, IMAGE_REF, and WORKSPACE
into every run.

# Examples

Run the built-in pipeline the way CI would:
  JOB_NAME=web BUILD_NUMBER=42 skiff run

Run a custom pipeline with explicit identity:
  skiff run -f pipeline.yaml --job web --build 42

Preview the resolved stages without executing:
  skiff run --job web --build 42 --dry-run

Write the run result document for archiving:
  skiff run --job web --build 42 --report result.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage: `Path/URI to the pipeline document (default: built-in ship pipeline).
	Supports: file paths, HTTP/HTTPS URLs, or ConfigMap URIs (cm://namespace/name).`,
				Sources: cli.EnvVars("SKIFF_PIPELINE"),
			},
			&cli.StringFlag{
				Name:    "job",
				Usage:   "Job name (JOB_NAME)",
				Sources: cli.EnvVars("JOB_NAME"),
			},
			&cli.StringFlag{
				Name:    "build",
				Usage:   "Build number (BUILD_NUMBER)",
				Sources: cli.EnvVars("BUILD_NUMBER"),
			},
			&cli.StringFlag{
				Name:    "registry-namespace",
				Usage:   "Registry namespace for image references (REGISTRY_NAMESPACE)",
				Sources: cli.EnvVars("REGISTRY_NAMESPACE"),
			},
			&cli.StringFlag{
				Name:    "deploy-host",
				Usage:   "Deployment target as user@host[:port] (DEPLOY_HOST)",
				Sources: cli.EnvVars("DEPLOY_HOST"),
			},
			&cli.StringFlag{
				Name:    "compose-file",
				Usage:   "Compose file for the deploy stage (COMPOSE_FILE)",
				Sources: cli.EnvVars("COMPOSE_FILE"),
			},
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Env file shipped alongside the compose file (ENV_FILE)",
				Sources: cli.EnvVars("ENV_FILE"),
			},
			&cli.StringSliceFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Environment override for the run (format: KEY=VALUE, can be repeated)",
			},
			&cli.StringSliceFlag{
				Name:  "stage-file",
				Usage: "Local file to copy into the workspace before the first stage (can be repeated)",
			},
			&cli.StringFlag{
				Name:    "workspace-root",
				Usage:   "Root directory for run workspaces (default: user cache dir)",
				Sources: cli.EnvVars("SKIFF_WORKSPACE_ROOT"),
			},
			&cli.BoolFlag{
				Name:    "keep-workspace",
				Usage:   "Keep the run workspace after cleanup stages",
				Sources: cli.EnvVars("SKIFF_KEEP_WORKSPACE"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Resolve and print the pipeline without executing it",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the run result document to this path (or cm://namespace/name)",
			},
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parseRunCmdOptions(cmd)
			if err != nil {
				return err
			}

			p, err := loadPipelineArg(cmd.String("file"))
			if err != nil {
				return err
			}

			if cmd.Bool("dry-run") {
				return dryRun(ctx, cmd, p, opts)
			}

			res, err := runner.New(nil).Run(ctx, p, opts)
			if err != nil {
				return err
			}

			if report := cmd.String("report"); report != "" {
				if err := writeDocument(ctx, cmd, report, res); err != nil {
					return err
				}
			}

			fmt.Fprintln(os.Stdout, res.Summary())

			if code := res.ExitCode(); code != 0 {
				return &exitError{code: code,
					message: fmt.Sprintf("run %s %s", res.RunID, res.Status)}
			}
			return nil
		},
	}
}

// parseRunCmdOptions assembles runner options from flags and the binding
// environment.
func parseRunCmdOptions(cmd *cli.Command) (runner.Options, error) {
	var opts runner.Options

	opts.Job = cmd.String("job")
	opts.BuildNumber = cmd.String("build")
	if opts.Job == "" {
		return opts, fmt.Errorf("job name is required (--job or JOB_NAME)")
	}
	if opts.BuildNumber == "" {
		return opts, fmt.Errorf("build number is required (--build or BUILD_NUMBER)")
	}

	env := make(map[string]string)
	for flagName, key := range map[string]string{
		"registry-namespace": pipeline.EnvRegistryNamespace,
		"deploy-host":        pipeline.EnvDeployHost,
		"compose-file":       pipeline.EnvComposeFile,
		"env-file":           pipeline.EnvEnvFile,
	} {
		if v := cmd.String(flagName); v != "" {
			env[key] = v
		}
	}

	overrides, err := parseEnvOverrides(cmd.StringSlice("env"))
	if err != nil {
		return opts, err
	}
	for k, v := range overrides {
		env[k] = v
	}
	if len(env) > 0 {
		opts.Env = env
	}

	opts.StageFiles = cmd.StringSlice("stage-file")
	opts.WorkspaceRoot = cmd.String("workspace-root")
	opts.KeepWorkspace = cmd.Bool("keep-workspace")
	opts.Stdout = os.Stdout
	opts.Stderr = os.Stderr
	opts.Version = version

	return opts, nil
}

// loadPipelineArg loads the pipeline document, or the built-in ship
// pipeline when path is empty.
func loadPipelineArg(path string) (*pipeline.Pipeline, error) {
	if path == "" {
		return pipeline.Default(), nil
	}
	return pipeline.Load(path)
}

// dryRun resolves the pipeline against the run environment and prints the
// document instead of executing it. Unresolved variables fail here the
// same way they would fail a real run.
func dryRun(ctx context.Context, cmd *cli.Command, p *pipeline.Pipeline, opts runner.Options) error {
	scope := map[string]string{
		pipeline.EnvJobName:     opts.Job,
		pipeline.EnvBuildNumber: opts.BuildNumber,
		pipeline.EnvRunID:       "dry-run",
		pipeline.EnvBuildTag:    fmt.Sprintf("%s-%s", opts.Job, opts.BuildNumber),
		pipeline.EnvWorkspace:   "<workspace>",
	}
	for k, v := range opts.Env {
		scope[k] = v
	}

	namespace := scope[pipeline.EnvRegistryNamespace]
	if namespace == "" {
		namespace = os.Getenv(pipeline.EnvRegistryNamespace)
	}
	if namespace != "" {
		scope[pipeline.EnvImageRef] = fmt.Sprintf("%s/%s:%s", namespace, opts.Job, opts.BuildNumber)
	} else {
		scope[pipeline.EnvImageRef] = fmt.Sprintf("%s:%s", opts.Job, opts.BuildNumber)
	}

	if err := p.Interpolate(scope); err != nil {
		return err
	}

	return writeDocument(ctx, cmd, cmd.String("report"), p)
}
