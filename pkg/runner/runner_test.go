/*
Copyright © 2025 NVIDIA Corporation

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package runner

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/NVIDIA/skiff/pkg/header"
	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/step"
)

// scriptedStep is driven by stage parameters: "id" records the call,
// "exit" fails with that code, "block" waits for cancellation.
type scriptedStep struct {
	calls   *[]string
	lastEnv *map[string]string
}

func (s scriptedStep) Run(ctx context.Context, sc *step.Context) error {
	if s.calls != nil {
		*s.calls = append(*s.calls, sc.Param("id"))
	}
	if s.lastEnv != nil {
		env := make(map[string]string, len(sc.Env))
		for k, v := range sc.Env {
			env[k] = v
		}
		*s.lastEnv = env
	}
	if sc.BoolParam("block") {
		<-ctx.Done()
		return ctx.Err()
	}
	if code := sc.Param("exit"); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			return err
		}
		return &step.ExitError{Cmd: "scripted", Code: n}
	}
	return nil
}

// testRegistry registers the scripted step under every built-in type so
// validated pipelines run against it.
func testRegistry(calls *[]string, lastEnv *map[string]string) *step.Registry {
	r := step.NewRegistry()
	s := scriptedStep{calls: calls, lastEnv: lastEnv}
	for _, name := range pipeline.KnownSteps() {
		r.MustRegister(name, s)
	}
	return r
}

func testPipeline(stages, post []pipeline.Stage) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Header: header.Header{
			Kind:       header.KindPipeline,
			APIVersion: pipeline.APIVersion,
			Metadata:   map[string]string{"name": "test"},
		},
		Stages: stages,
		Post:   post,
	}
}

func execStage(name, id string) pipeline.Stage {
	return pipeline.Stage{
		Name: name,
		Step: pipeline.StepExec,
		With: map[string]string{"id": id},
	}
}

func TestRunSequentialSuccess(t *testing.T) {
	var calls []string
	r := New(testRegistry(&calls, nil))

	p := testPipeline(
		[]pipeline.Stage{execStage("one", "1"), execStage("two", "2"), execStage("three", "3")},
		[]pipeline.Stage{execStage("cleanup", "post")},
	)

	res, err := r.Run(context.Background(), p, Options{
		Job:           "web",
		BuildNumber:   "42",
		WorkspaceRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(calls, ","); got != "1,2,3,post" {
		t.Errorf("expected sequential execution, got %s", got)
	}
	if res.Status != RunStatusSucceeded {
		t.Errorf("expected succeeded, got %s", res.Status)
	}
	if res.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", res.ExitCode())
	}
	if len(res.Stages) != 4 {
		t.Fatalf("expected 4 stage results, got %d", len(res.Stages))
	}
	for _, s := range res.Stages {
		if s.Status != StageStatusSucceeded {
			t.Errorf("stage %s: expected succeeded, got %s", s.Name, s.Status)
		}
	}
	if !res.Stages[3].Post {
		t.Error("expected cleanup stage marked as post")
	}
	if res.Kind != header.KindRunResult {
		t.Errorf("expected RunResult kind, got %s", res.Kind)
	}
	if res.RunID == "" {
		t.Error("expected a run ID")
	}
}

func TestRunFailureSkipsRemaining(t *testing.T) {
	var calls []string
	r := New(testRegistry(&calls, nil))

	failing := execStage("two", "2")
	failing.With["exit"] = "3"

	p := testPipeline(
		[]pipeline.Stage{execStage("one", "1"), failing, execStage("three", "3")},
		[]pipeline.Stage{execStage("cleanup", "post")},
	)

	res, err := r.Run(context.Background(), p, Options{
		Job:           "web",
		BuildNumber:   "42",
		WorkspaceRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stage three never runs, post still does
	if got := strings.Join(calls, ","); got != "1,2,post" {
		t.Errorf("expected skip after failure, got %s", got)
	}
	if res.Status != RunStatusFailed {
		t.Errorf("expected failed, got %s", res.Status)
	}
	if res.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %d", res.ExitCode())
	}

	byName := make(map[string]StageResult)
	for _, s := range res.Stages {
		byName[s.Name] = s
	}
	if byName["two"].Status != StageStatusFailed {
		t.Errorf("expected stage two failed, got %s", byName["two"].Status)
	}
	if byName["two"].ExitCode != 3 {
		t.Errorf("expected external exit code 3, got %d", byName["two"].ExitCode)
	}
	if byName["three"].Status != StageStatusSkipped {
		t.Errorf("expected stage three skipped, got %s", byName["three"].Status)
	}
	if byName["cleanup"].Status != StageStatusSucceeded {
		t.Errorf("expected post cleanup to run, got %s", byName["cleanup"].Status)
	}
}

func TestRunCancellation(t *testing.T) {
	var calls []string
	r := New(testRegistry(&calls, nil))

	blocking := execStage("one", "1")
	blocking.With["block"] = "true"

	p := testPipeline(
		[]pipeline.Stage{blocking, execStage("two", "2")},
		[]pipeline.Stage{execStage("cleanup", "post")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, p, Options{
		Job:           "web",
		BuildNumber:   "42",
		WorkspaceRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != RunStatusCanceled {
		t.Errorf("expected canceled, got %s", res.Status)
	}
	if res.ExitCode() != 2 {
		t.Errorf("expected exit code 2, got %d", res.ExitCode())
	}

	byName := make(map[string]StageResult)
	for _, s := range res.Stages {
		byName[s.Name] = s
	}
	if byName["one"].Status != StageStatusAborted {
		t.Errorf("expected interrupted stage aborted, got %s", byName["one"].Status)
	}
	if byName["two"].Status != StageStatusSkipped {
		t.Errorf("expected later stage skipped, got %s", byName["two"].Status)
	}
	// Post stages run on a detached context
	if byName["cleanup"].Status != StageStatusSucceeded {
		t.Errorf("expected post cleanup to run after cancellation, got %s", byName["cleanup"].Status)
	}
}

func TestRunPostFailureFailsRun(t *testing.T) {
	var calls []string
	r := New(testRegistry(&calls, nil))

	failingPost := execStage("cleanup", "post")
	failingPost.With["exit"] = "4"

	p := testPipeline(
		[]pipeline.Stage{execStage("one", "1"), execStage("two", "2")},
		[]pipeline.Stage{failingPost},
	)

	res, err := r.Run(context.Background(), p, Options{
		Job:           "web",
		BuildNumber:   "42",
		WorkspaceRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != RunStatusFailed {
		t.Errorf("expected failed when post stage fails, got %s", res.Status)
	}
	if res.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %d", res.ExitCode())
	}

	byName := make(map[string]StageResult)
	for _, s := range res.Stages {
		byName[s.Name] = s
	}
	if byName["one"].Status != StageStatusSucceeded || byName["two"].Status != StageStatusSucceeded {
		t.Error("expected main stages to stay succeeded")
	}
	if byName["cleanup"].Status != StageStatusFailed {
		t.Errorf("expected post stage failed, got %s", byName["cleanup"].Status)
	}
}

func TestRunPostFailureKeepsCanceled(t *testing.T) {
	var calls []string
	r := New(testRegistry(&calls, nil))

	blocking := execStage("one", "1")
	blocking.With["block"] = "true"
	failingPost := execStage("cleanup", "post")
	failingPost.With["exit"] = "4"

	p := testPipeline([]pipeline.Stage{blocking}, []pipeline.Stage{failingPost})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, p, Options{
		Job:           "web",
		BuildNumber:   "42",
		WorkspaceRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Cancellation stays authoritative over the post failure
	if res.Status != RunStatusCanceled {
		t.Errorf("expected canceled, got %s", res.Status)
	}
	if res.ExitCode() != 2 {
		t.Errorf("expected exit code 2, got %d", res.ExitCode())
	}

	byName := make(map[string]StageResult)
	for _, s := range res.Stages {
		byName[s.Name] = s
	}
	if byName["cleanup"].Status != StageStatusFailed {
		t.Errorf("expected post stage failed, got %s", byName["cleanup"].Status)
	}
}

func TestRunStageTimeout(t *testing.T) {
	var calls []string
	r := New(testRegistry(&calls, nil))

	slow := execStage("slow", "1")
	slow.With["block"] = "true"
	slow.Timeout = pipeline.Duration(30 * time.Millisecond)

	p := testPipeline([]pipeline.Stage{slow}, nil)

	res, err := r.Run(context.Background(), p, Options{
		Job:           "web",
		BuildNumber:   "42",
		WorkspaceRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != RunStatusFailed {
		t.Errorf("expected failed, got %s", res.Status)
	}
	if !strings.Contains(res.Stages[0].Error, "timed out") {
		t.Errorf("expected timeout error, got %q", res.Stages[0].Error)
	}
}

func TestRunInjectedEnv(t *testing.T) {
	var lastEnv map[string]string
	r := New(testRegistry(nil, &lastEnv))

	p := testPipeline([]pipeline.Stage{execStage("one", "1")}, nil)

	res, err := r.Run(context.Background(), p, Options{
		Job:           "web",
		BuildNumber:   "42",
		Env:           map[string]string{pipeline.EnvRegistryNamespace: "ghcr.io/nvidia"},
		WorkspaceRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lastEnv[pipeline.EnvRunID] != res.RunID {
		t.Errorf("expected SKIFF_RUN_ID %s, got %s", res.RunID, lastEnv[pipeline.EnvRunID])
	}
	if lastEnv[pipeline.EnvBuildTag] != "web-42" {
		t.Errorf("expected BUILD_TAG web-42, got %s", lastEnv[pipeline.EnvBuildTag])
	}
	if lastEnv[pipeline.EnvImageRef] != "ghcr.io/nvidia/web:42" {
		t.Errorf("expected IMAGE_REF ghcr.io/nvidia/web:42, got %s", lastEnv[pipeline.EnvImageRef])
	}
	if lastEnv[pipeline.EnvWorkspace] != res.Workspace {
		t.Errorf("expected WORKSPACE %s, got %s", res.Workspace, lastEnv[pipeline.EnvWorkspace])
	}
	if lastEnv[pipeline.EnvJobName] != "web" || lastEnv[pipeline.EnvBuildNumber] != "42" {
		t.Error("expected job identity in run env")
	}
}

func TestRunInterpolatesParams(t *testing.T) {
	var lastEnv map[string]string
	r := New(testRegistry(nil, &lastEnv))

	stage := execStage("one", "1")
	stage.With["tag"] = "${BUILD_TAG}"

	p := testPipeline([]pipeline.Stage{stage}, nil)

	if _, err := r.Run(context.Background(), p, Options{
		Job:           "api",
		BuildNumber:   "7",
		WorkspaceRoot: t.TempDir(),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := p.Stages[0].With["tag"]; got != "api-7" {
		t.Errorf("expected interpolated tag api-7, got %s", got)
	}
}

func TestRunUnresolvedVariable(t *testing.T) {
	r := New(testRegistry(nil, nil))

	stage := execStage("one", "1")
	stage.With["target"] = "${SKIFF_TEST_UNSET_VAR}"

	p := testPipeline([]pipeline.Stage{stage}, nil)

	_, err := r.Run(context.Background(), p, Options{
		Job:           "web",
		BuildNumber:   "42",
		WorkspaceRoot: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for unresolved variable")
	}
	if !strings.Contains(err.Error(), "SKIFF_TEST_UNSET_VAR") {
		t.Errorf("expected error to name the variable, got %v", err)
	}
}

func TestRunRequiresJobIdentity(t *testing.T) {
	r := New(testRegistry(nil, nil))
	p := testPipeline([]pipeline.Stage{execStage("one", "1")}, nil)

	if _, err := r.Run(context.Background(), p, Options{BuildNumber: "42"}); err == nil {
		t.Error("expected error for missing job name")
	}
	if _, err := r.Run(context.Background(), p, Options{Job: "web"}); err == nil {
		t.Error("expected error for missing build number")
	}
}

func TestRunStagesInputFiles(t *testing.T) {
	dir := t.TempDir()
	composePath := filepath.Join(dir, "docker-compose.yaml")
	if err := os.WriteFile(composePath, []byte("services: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var lastEnv map[string]string
	r := New(testRegistry(nil, &lastEnv))
	p := testPipeline([]pipeline.Stage{execStage("one", "1")}, nil)

	res, err := r.Run(context.Background(), p, Options{
		Job:           "web",
		BuildNumber:   "42",
		StageFiles:    []string{composePath},
		WorkspaceRoot: t.TempDir(),
		KeepWorkspace: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	staged := filepath.Join(res.Workspace, "docker-compose.yaml")
	if _, err := os.Stat(staged); err != nil {
		t.Errorf("expected staged input at %s: %v", staged, err)
	}
}

func TestRunResultSummary(t *testing.T) {
	res := &RunResult{
		RunID:       "abc",
		Job:         "web",
		BuildNumber: "42",
		Status:      RunStatusFailed,
		Stages: []StageResult{
			{Name: "build", Step: pipeline.StepImageBuild, Status: StageStatusSucceeded},
			{Name: "push", Step: pipeline.StepImagePush, Status: StageStatusFailed, Error: "denied"},
			{Name: "cleanup", Step: pipeline.StepWorkspaceCleanup, Status: StageStatusSucceeded, Post: true},
		},
	}

	s := res.Summary()
	for _, want := range []string{"web #42", "failed", "denied", "post"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected summary to contain %q:\n%s", want, s)
		}
	}
}
