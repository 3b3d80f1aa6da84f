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

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/NVIDIA/skiff/pkg/errors"
	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/runner"
	"github.com/NVIDIA/skiff/pkg/serializer"
)

// historySize is the number of completed runs kept in memory.
const historySize = 50

// RunRequest is the POST /v1/runs trigger body. All fields are optional;
// pointer fields distinguish "unset" from zero values so a trigger can
// override service defaults selectively.
type RunRequest struct {
	// Job overrides the service's default job name.
	Job string `json:"job,omitempty"`

	// Build overrides the generated build number.
	Build string `json:"build,omitempty"`

	// Env holds environment overrides folded into the run.
	Env map[string]string `json:"env,omitempty"`

	// KeepWorkspace overrides the service's workspace retention setting.
	KeepWorkspace *bool `json:"keepWorkspace,omitempty"`
}

// RunAccepted is the 202 response for a triggered run.
type RunAccepted struct {
	RunID string `json:"runId"`
	Job   string `json:"job"`
	Build string `json:"build"`
}

// RunService triggers pipeline runs over HTTP. Runs are serialized per
// service: while one is in flight, new triggers get 409 Conflict, the
// same discipline the CI host applied per job.
type RunService struct {
	// Runner executes the pipelines. Required.
	Runner *runner.Runner

	// Pipeline is the document every trigger executes. Required.
	Pipeline *pipeline.Pipeline

	// Job is the default job name for triggers that don't carry one.
	Job string

	// KeepWorkspace is the default workspace retention setting.
	KeepWorkspace bool

	// WorkspaceRoot overrides the runner's workspace root.
	WorkspaceRoot string

	// Version is stamped on run result documents.
	Version string

	mu       sync.Mutex
	inFlight string // run ID of the active run, empty when idle
	buildSeq int
	history  []*runner.RunResult
}

// Routes returns the service's handler map for server registration.
func (rs *RunService) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/v1/runs":  rs.handleRuns,
		"/v1/runs/": rs.handleRunByID,
	}
}

// handleRuns dispatches POST (trigger) and GET (list).
func (rs *RunService) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rs.handleTrigger(w, r)
	case http.MethodGet:
		rs.handleList(w, r)
	default:
		WriteError(w, r, http.StatusMethodNotAllowed, apperrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, nil)
	}
}

// handleTrigger starts a run in the background and returns 202, or 409
// while another run is in flight.
func (rs *RunService) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
				"Invalid request body", false, map[string]any{"error": err.Error()})
			return
		}
	}

	job := req.Job
	if job == "" {
		job = rs.Job
	}
	if job == "" {
		WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			"No job name in request or service configuration", false, nil)
		return
	}

	keep := rs.KeepWorkspace
	if req.KeepWorkspace != nil {
		keep = *req.KeepWorkspace
	}

	rs.mu.Lock()
	if rs.inFlight != "" {
		active := rs.inFlight
		rs.mu.Unlock()
		WriteError(w, r, http.StatusConflict, apperrors.ErrCodeConflict,
			"A run is already in flight", true, map[string]any{"runId": active})
		return
	}
	build := req.Build
	if build == "" {
		rs.buildSeq++
		build = strconv.Itoa(rs.buildSeq)
	}
	runID := uuid.New().String()
	rs.inFlight = runID
	rs.mu.Unlock()

	opts := runner.Options{
		Job:           job,
		BuildNumber:   build,
		RunID:         runID,
		Env:           req.Env,
		KeepWorkspace: keep,
		WorkspaceRoot: rs.WorkspaceRoot,
		Version:       rs.Version,
	}

	// Each trigger executes a private copy: interpolation mutates the
	// document in place.
	go rs.execute(rs.clonePipeline(), opts)

	serializer.RespondJSON(w, http.StatusAccepted,
		RunAccepted{RunID: runID, Job: job, Build: build})
}

// execute runs the pipeline in the background and records the result.
func (rs *RunService) execute(p *pipeline.Pipeline, opts runner.Options) {
	// Detached from the HTTP request context: the trigger returned 202
	// and the run continues on its own.
	res, err := rs.Runner.Run(context.Background(), p, opts)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.inFlight = ""

	if err != nil {
		slog.Error("triggered run failed to start",
			"runId", opts.RunID, "job", opts.Job, "error", err)
		return
	}

	rs.history = append(rs.history, res)
	if len(rs.history) > historySize {
		rs.history = rs.history[len(rs.history)-historySize:]
	}
}

// handleList serves GET /v1/runs: completed runs, newest first.
func (rs *RunService) handleList(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	runs := make([]*runner.RunResult, len(rs.history))
	for i, res := range rs.history {
		runs[len(rs.history)-1-i] = res
	}
	rs.mu.Unlock()

	serializer.RespondJSON(w, http.StatusOK, struct {
		Runs []*runner.RunResult `json:"runs"`
	}{Runs: runs})
}

// handleRunByID serves GET /v1/runs/{id}.
func (rs *RunService) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, apperrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, nil)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			"Missing run ID", false, nil)
		return
	}

	rs.mu.Lock()
	var found *runner.RunResult
	for _, res := range rs.history {
		if res.RunID == id {
			found = res
			break
		}
	}
	rs.mu.Unlock()

	if found == nil {
		WriteError(w, r, http.StatusNotFound, apperrors.ErrCodeNotFound,
			"No run with that ID", false, map[string]any{"runId": id})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, found)
}

// clonePipeline deep-copies the service pipeline for one run.
func (rs *RunService) clonePipeline() *pipeline.Pipeline {
	src := rs.Pipeline
	dst := &pipeline.Pipeline{
		Header: src.Header,
		Env:    cloneMap(src.Env),
		Stages: cloneStages(src.Stages),
		Post:   cloneStages(src.Post),
	}
	return dst
}

func cloneStages(stages []pipeline.Stage) []pipeline.Stage {
	if stages == nil {
		return nil
	}
	out := make([]pipeline.Stage, len(stages))
	for i, s := range stages {
		out[i] = s
		out[i].With = cloneMap(s.With)
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
