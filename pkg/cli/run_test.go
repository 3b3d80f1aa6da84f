// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/runner"
)

func TestRunCmd_CommandStructure(t *testing.T) {
	cmd := runCmd()

	if cmd.Name != "run" {
		t.Errorf("Name = %v, want run", cmd.Name)
	}
	if cmd.Usage == "" {
		t.Error("Usage should not be empty")
	}
	if cmd.Description == "" {
		t.Error("Description should not be empty")
	}
	if cmd.Action == nil {
		t.Error("Action should not be nil")
	}

	requireFlags(t, cmd,
		"file", "job", "build",
		"registry-namespace", "deploy-host", "compose-file", "env-file",
		"env", "stage-file", "workspace-root", "keep-workspace",
		"dry-run", "report", "format",
	)
}

// parseRunOptionsFor runs parseRunCmdOptions against parsed args.
func parseRunOptionsFor(t *testing.T, args ...string) (runner.Options, error) {
	t.Helper()

	var (
		opts     runner.Options
		parseErr error
	)
	cmd := &cli.Command{
		Flags: runCmd().Flags,
		Action: func(_ context.Context, c *cli.Command) error {
			opts, parseErr = parseRunCmdOptions(c)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), append([]string{"run"}, args...)); err != nil {
		t.Fatalf("failed to run command: %v", err)
	}
	return opts, parseErr
}

func TestParseRunCmdOptions(t *testing.T) {
	opts, err := parseRunOptionsFor(t,
		"--job", "web",
		"--build", "42",
		"--registry-namespace", "ghcr.io/nvidia",
		"--deploy-host", "deploy@web01",
		"--env", "EXTRA=1",
		"--keep-workspace",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if opts.Job != "web" || opts.BuildNumber != "42" {
		t.Errorf("job/build = %s/%s, want web/42", opts.Job, opts.BuildNumber)
	}
	if !opts.KeepWorkspace {
		t.Error("expected KeepWorkspace to be set")
	}
	if opts.Env[pipeline.EnvRegistryNamespace] != "ghcr.io/nvidia" {
		t.Errorf("REGISTRY_NAMESPACE = %q, want ghcr.io/nvidia", opts.Env[pipeline.EnvRegistryNamespace])
	}
	if opts.Env[pipeline.EnvDeployHost] != "deploy@web01" {
		t.Errorf("DEPLOY_HOST = %q, want deploy@web01", opts.Env[pipeline.EnvDeployHost])
	}
	if opts.Env["EXTRA"] != "1" {
		t.Errorf("EXTRA = %q, want 1", opts.Env["EXTRA"])
	}
}

func TestParseRunCmdOptionsRequiresIdentity(t *testing.T) {
	if _, err := parseRunOptionsFor(t, "--build", "42"); err == nil {
		t.Error("expected error when job is missing")
	}
	if _, err := parseRunOptionsFor(t, "--job", "web"); err == nil {
		t.Error("expected error when build is missing")
	}
}

func TestParseRunCmdOptionsBadEnvOverride(t *testing.T) {
	if _, err := parseRunOptionsFor(t, "--job", "web", "--build", "1", "--env", "NOPE"); err == nil {
		t.Error("expected error for malformed env override")
	}
}

func TestRunCmdDryRun(t *testing.T) {
	report := filepath.Join(t.TempDir(), "pipeline.yaml")

	err := runCmd().Run(context.Background(), []string{
		"run",
		"--dry-run",
		"--job", "web",
		"--build", "42",
		"--registry-namespace", "ghcr.io/nvidia",
		"--deploy-host", "deploy@web01",
		"--compose-file", "docker-compose.yml",
		"--env-file", ".env",
		"--report", report,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}

	doc := string(data)
	if !strings.Contains(doc, "ghcr.io/nvidia/web:42") {
		t.Errorf("expected resolved image reference in document, got:\n%s", doc)
	}
	if !strings.Contains(doc, "deploy@web01") {
		t.Errorf("expected resolved deploy host in document, got:\n%s", doc)
	}
	if strings.Contains(doc, "${") {
		t.Errorf("expected no unresolved variables in document, got:\n%s", doc)
	}
}

func TestRunCmdDryRunUnresolved(t *testing.T) {
	// The built-in pipeline needs the full binding contract; leaving the
	// deploy variables out must fail interpolation.
	for _, key := range []string{
		pipeline.EnvRegistryNamespace,
		pipeline.EnvDeployHost,
		pipeline.EnvComposeFile,
		pipeline.EnvEnvFile,
	} {
		os.Unsetenv(key)
	}

	err := runCmd().Run(context.Background(), []string{
		"run",
		"--dry-run",
		"--job", "web",
		"--build", "42",
	})
	if err == nil {
		t.Error("expected unresolved variable error")
	}
}

func TestLoadPipelineArg(t *testing.T) {
	t.Run("empty selects built-in", func(t *testing.T) {
		p, err := loadPipelineArg("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name() != pipeline.DefaultName {
			t.Errorf("expected built-in pipeline, got %q", p.Name())
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := loadPipelineArg(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
