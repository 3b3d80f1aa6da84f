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

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/skiff/pkg/defaults"
	apperrors "github.com/NVIDIA/skiff/pkg/errors"
	"github.com/NVIDIA/skiff/pkg/header"
	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/step"
	"github.com/NVIDIA/skiff/pkg/workspace"
)

// Options binds one run to its job identity and environment.
type Options struct {
	// Job is the job name (JOB_NAME in the binding contract). Required.
	Job string

	// BuildNumber is the CI build number (BUILD_NUMBER). Required.
	BuildNumber string

	// RunID overrides the generated run identifier. Used by callers that
	// need the ID before the run completes (the trigger API). Empty
	// generates a fresh UUID.
	RunID string

	// Env holds caller-supplied environment overrides, applied over the
	// binding variables and the pipeline's env block.
	Env map[string]string

	// StageFiles are local inputs (compose file, env file) copied into
	// the workspace before the first stage, with a checksum manifest.
	StageFiles []string

	// WorkspaceRoot overrides the workspace root directory. Empty
	// selects the default under the user cache dir.
	WorkspaceRoot string

	// KeepWorkspace leaves the run directory in place after cleanup
	// stages.
	KeepWorkspace bool

	// Stdout and Stderr receive stage output. Nil writers discard.
	Stdout io.Writer
	Stderr io.Writer

	// Version is stamped on the run result document.
	Version string
}

// Runner executes pipelines with the CI-host semantics the documents
// assume: strict stage order, abort on first failure, always-run post
// stages, per-stage timeouts, and a per-run workspace.
type Runner struct {
	registry *step.Registry
}

// New creates a Runner. A nil registry selects the built-in steps.
func New(registry *step.Registry) *Runner {
	if registry == nil {
		registry = step.Defaults()
	}
	return &Runner{registry: registry}
}

// Run executes the pipeline and returns its result document. An error is
// returned only for setup failures (invalid document, unresolved
// variables, workspace creation); stage failures are reported through the
// result's Status and ExitCode so post stages and reporting still happen.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline, opts Options) (*RunResult, error) {
	if err := p.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid pipeline", err)
	}
	if opts.Job == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "job name is required (JOB_NAME)")
	}
	if opts.BuildNumber == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "build number is required (BUILD_NUMBER)")
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	ws, err := workspace.New(opts.WorkspaceRoot, opts.Job, opts.BuildNumber, runID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create workspace", err)
	}

	runEnv := buildRunEnv(p, opts, runID, ws.Dir())

	if err := p.Interpolate(runEnv); err != nil {
		// The workspace never held anything yet
		_ = ws.Cleanup()
		return nil, err
	}

	if len(opts.StageFiles) > 0 {
		if _, err := ws.Stage(ctx, opts.StageFiles...); err != nil {
			_ = ws.Cleanup()
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to stage workspace inputs", err)
		}
	}

	result := &RunResult{
		RunID:       runID,
		Job:         opts.Job,
		BuildNumber: opts.BuildNumber,
		Pipeline:    p.Name(),
		Workspace:   ws.Dir(),
		Stages:      make([]StageResult, 0, len(p.Stages)+len(p.Post)),
	}
	result.Init(header.KindRunResult, pipeline.APIVersion, opts.Version)
	result.Metadata["name"] = fmt.Sprintf("%s-%s", opts.Job, opts.BuildNumber)

	slog.Info("run started",
		"runId", runID,
		"job", opts.Job,
		"build", opts.BuildNumber,
		"pipeline", p.Name(),
		"stages", len(p.Stages),
		"workspace", ws.Dir(),
	)

	runsInFlight.Inc()
	defer runsInFlight.Dec()
	start := time.Now()

	sc := &step.Context{
		Workspace:     ws,
		Dir:           ws.Dir(),
		Env:           runEnv,
		KeepWorkspace: opts.KeepWorkspace,
		Stdout:        opts.Stdout,
		Stderr:        opts.Stderr,
	}

	canceled := r.runStages(ctx, p.Stages, sc, result, false)

	// Post stages run on a context detached from run cancellation so
	// cleanup happens even after SIGINT.
	postCtx := context.WithoutCancel(ctx)
	r.runStages(postCtx, p.Post, sc, result, true)

	result.TotalDuration = pipeline.Duration(time.Since(start))
	result.Status = runStatus(result, canceled)

	runTotal.WithLabelValues(string(result.Status)).Inc()
	runDuration.Observe(time.Since(start).Seconds())

	succeeded, failed, skipped, aborted := result.counts()
	slog.Info("run finished",
		"runId", runID,
		"status", result.Status,
		"duration", result.TotalDuration.String(),
		"succeeded", succeeded,
		"failed", failed,
		"skipped", skipped,
		"aborted", aborted,
	)

	return result, nil
}

// runStages executes one stage list in order and appends results. It
// returns true when the run was canceled mid-stage. For main stages the
// first failure skips the remainder; post stages all run regardless.
func (r *Runner) runStages(ctx context.Context, stages []pipeline.Stage, sc *step.Context, result *RunResult, post bool) bool {
	var failed, canceled bool

	for i := range stages {
		stage := &stages[i]
		sr := StageResult{Name: stage.Name, Step: stage.Step, Post: post}

		if !post && (failed || canceled) {
			sr.Status = StageStatusSkipped
			result.Stages = append(result.Stages, sr)
			stageTotal.WithLabelValues(stage.Step, string(sr.Status)).Inc()
			continue
		}

		impl, ok := r.registry.Get(stage.Step)
		if !ok {
			// Validate catches unknown steps; a custom registry may
			// still miss one.
			sr.Status = StageStatusFailed
			sr.ExitCode = 1
			sr.Error = fmt.Sprintf("no step registered for type %q", stage.Step)
			result.Stages = append(result.Stages, sr)
			stageTotal.WithLabelValues(stage.Step, string(sr.Status)).Inc()
			failed = true
			continue
		}

		timeout := stage.Timeout.Std()
		if timeout <= 0 {
			timeout = defaults.StageTimeout
			if post {
				timeout = defaults.PostStageTimeout
			}
		}

		slog.Info("stage started", "stage", stage.Name, "step", stage.Step, "timeout", timeout.String())

		stageCtx, cancel := context.WithTimeout(ctx, timeout)
		stageStart := time.Now()
		sc.With = stage.With
		err := impl.Run(stageCtx, sc)
		sr.Duration = pipeline.Duration(time.Since(stageStart))
		cancel()

		switch {
		case err == nil:
			sr.Status = StageStatusSucceeded
		case ctx.Err() != nil && errors.Is(err, context.Canceled):
			sr.Status = StageStatusAborted
			sr.ExitCode = 1
			sr.Error = "run canceled"
			canceled = true
		case errors.Is(err, context.DeadlineExceeded):
			sr.Status = StageStatusFailed
			sr.ExitCode = 1
			sr.Error = fmt.Sprintf("stage timed out after %s", timeout)
			failed = true
		default:
			sr.Status = StageStatusFailed
			sr.ExitCode = step.ExitCode(err)
			sr.Error = err.Error()
			failed = true
		}

		stageDuration.WithLabelValues(stage.Name, stage.Step).Observe(sr.Duration.Std().Seconds())
		stageTotal.WithLabelValues(stage.Step, string(sr.Status)).Inc()

		if sr.Status == StageStatusSucceeded {
			slog.Info("stage finished", "stage", stage.Name, "duration", sr.Duration.String())
		} else {
			slog.Error("stage failed",
				"stage", stage.Name,
				"status", sr.Status,
				"exitCode", sr.ExitCode,
				"error", sr.Error,
			)
		}

		result.Stages = append(result.Stages, sr)
	}

	return canceled
}

// buildRunEnv assembles the run environment overlay: binding variables
// from the process environment, the pipeline env block, caller overrides,
// and finally the runner injections, which stay authoritative.
func buildRunEnv(p *pipeline.Pipeline, opts Options, runID, wsDir string) map[string]string {
	env := make(map[string]string)

	for _, key := range []string{
		pipeline.EnvRegistryNamespace,
		pipeline.EnvDeployHost,
		pipeline.EnvComposeFile,
		pipeline.EnvEnvFile,
	} {
		if v := os.Getenv(key); v != "" {
			env[key] = v
		}
	}

	for k, v := range p.Env {
		env[k] = v
	}
	for k, v := range opts.Env {
		env[k] = v
	}

	env[pipeline.EnvJobName] = opts.Job
	env[pipeline.EnvBuildNumber] = opts.BuildNumber
	env[pipeline.EnvRunID] = runID
	env[pipeline.EnvBuildTag] = fmt.Sprintf("%s-%s", opts.Job, opts.BuildNumber)
	env[pipeline.EnvWorkspace] = wsDir

	namespace := env[pipeline.EnvRegistryNamespace]
	if namespace != "" {
		env[pipeline.EnvImageRef] = fmt.Sprintf("%s/%s:%s", namespace, opts.Job, opts.BuildNumber)
	} else {
		env[pipeline.EnvImageRef] = fmt.Sprintf("%s:%s", opts.Job, opts.BuildNumber)
	}

	return env
}

// runStatus derives the overall outcome from the stage results.
func runStatus(result *RunResult, canceled bool) RunStatus {
	if canceled {
		return RunStatusCanceled
	}
	for _, s := range result.Stages {
		if s.Status == StageStatusFailed {
			return RunStatusFailed
		}
	}
	return RunStatusSucceeded
}
