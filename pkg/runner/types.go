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
	"fmt"
	"strings"

	"github.com/NVIDIA/skiff/pkg/header"
	"github.com/NVIDIA/skiff/pkg/pipeline"
)

// RunStatus is the overall outcome of a pipeline run.
type RunStatus string

const (
	// RunStatusSucceeded indicates every stage (including post) passed.
	RunStatusSucceeded RunStatus = "succeeded"

	// RunStatusFailed indicates at least one stage failed.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCanceled indicates the run was interrupted before
	// completion (signal or context cancellation).
	RunStatusCanceled RunStatus = "canceled"
)

// StageStatus is the outcome of a single stage.
type StageStatus string

const (
	// StageStatusSucceeded indicates the stage completed without error.
	StageStatusSucceeded StageStatus = "succeeded"

	// StageStatusFailed indicates the stage returned an error or a
	// non-zero exit.
	StageStatusFailed StageStatus = "failed"

	// StageStatusSkipped indicates the stage never ran because an
	// earlier stage failed.
	StageStatusSkipped StageStatus = "skipped"

	// StageStatusAborted indicates the stage was interrupted by run
	// cancellation.
	StageStatusAborted StageStatus = "aborted"
)

// StageResult records one stage's execution.
type StageResult struct {
	// Name is the stage name from the pipeline document.
	Name string `json:"name" yaml:"name"`

	// Step is the step type the stage invoked.
	Step string `json:"step" yaml:"step"`

	// Status is the stage outcome.
	Status StageStatus `json:"status" yaml:"status"`

	// ExitCode is 0 on success, the external tool's exit code when one
	// is known, 1 otherwise.
	ExitCode int `json:"exitCode" yaml:"exitCode"`

	// Duration is how long the stage ran. Zero for skipped stages.
	Duration pipeline.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Error describes the failure, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Post marks always-run post stages.
	Post bool `json:"post,omitempty" yaml:"post,omitempty"`
}

// RunResult is the run report document.
type RunResult struct {
	header.Header `json:",inline" yaml:",inline"`

	// RunID is the UUID assigned to this run.
	RunID string `json:"runId" yaml:"runId"`

	// Job is the job name the run was bound to.
	Job string `json:"job" yaml:"job"`

	// BuildNumber is the CI build number the run was bound to.
	BuildNumber string `json:"buildNumber" yaml:"buildNumber"`

	// Pipeline is the metadata name of the executed pipeline.
	Pipeline string `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`

	// Workspace is the run's scratch directory.
	Workspace string `json:"workspace,omitempty" yaml:"workspace,omitempty"`

	// Status is the overall run outcome.
	Status RunStatus `json:"status" yaml:"status"`

	// Stages holds per-stage results in execution order, post stages
	// last.
	Stages []StageResult `json:"stages" yaml:"stages"`

	// TotalDuration is the wall-clock duration of the whole run.
	TotalDuration pipeline.Duration `json:"totalDuration" yaml:"totalDuration"`
}

// Succeeded reports whether the run completed without failure.
func (r *RunResult) Succeeded() bool {
	return r.Status == RunStatusSucceeded
}

// ExitCode maps the run outcome to the CLI exit code contract:
// 0 success, 1 failure, 2 canceled.
func (r *RunResult) ExitCode() int {
	switch r.Status {
	case RunStatusSucceeded:
		return 0
	case RunStatusCanceled:
		return 2
	default:
		return 1
	}
}

// Summary renders a short human-readable run report.
func (r *RunResult) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s (%s #%s): %s in %s\n",
		r.RunID, r.Job, r.BuildNumber, r.Status, r.TotalDuration)

	for _, s := range r.Stages {
		marker := "post "
		if !s.Post {
			marker = "stage"
		}
		fmt.Fprintf(&b, "  %s %-20s %-9s %s", marker, s.Name, s.Status, s.Duration)
		if s.Error != "" {
			fmt.Fprintf(&b, "  %s", s.Error)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// counts tallies stage outcomes for logging.
func (r *RunResult) counts() (succeeded, failed, skipped, aborted int) {
	for _, s := range r.Stages {
		switch s.Status {
		case StageStatusSucceeded:
			succeeded++
		case StageStatusFailed:
			failed++
		case StageStatusSkipped:
			skipped++
		case StageStatusAborted:
			aborted++
		}
	}
	return
}
