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

package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/skiff/pkg/header"
)

func TestStageValidate(t *testing.T) {
	tests := []struct {
		name    string
		stage   Stage
		wantErr string
	}{
		{
			name:  "valid stage",
			stage: Stage{Name: "build", Step: StepImageBuild},
		},
		{
			name:    "empty name",
			stage:   Stage{Step: StepExec},
			wantErr: "name cannot be empty",
		},
		{
			name:    "empty step",
			stage:   Stage{Name: "build"},
			wantErr: "has no step",
		},
		{
			name:    "unknown step",
			stage:   Stage{Name: "build", Step: "teleport"},
			wantErr: "unknown step",
		},
		{
			name:    "negative timeout",
			stage:   Stage{Name: "build", Step: StepExec, Timeout: Duration(-time.Second)},
			wantErr: "negative timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stage.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want contains %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPipelineValidate(t *testing.T) {
	valid := func() *Pipeline {
		return &Pipeline{
			Stages: []Stage{
				{Name: "build", Step: StepImageBuild},
				{Name: "push", Step: StepImagePush},
			},
			Post: []Stage{
				{Name: "cleanup", Step: StepWorkspaceCleanup},
			},
		}
	}

	t.Run("valid pipeline", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() unexpected error: %v", err)
		}
	})

	t.Run("nil pipeline", func(t *testing.T) {
		var p *Pipeline
		if err := p.Validate(); err == nil {
			t.Error("Validate() expected error for nil pipeline")
		}
	})

	t.Run("wrong kind", func(t *testing.T) {
		p := valid()
		p.Kind = header.KindRunResult
		err := p.Validate()
		if err == nil || !strings.Contains(err.Error(), "unexpected kind") {
			t.Errorf("Validate() error = %v, want unexpected kind", err)
		}
	})

	t.Run("pipeline kind accepted", func(t *testing.T) {
		p := valid()
		p.Kind = header.KindPipeline
		if err := p.Validate(); err != nil {
			t.Errorf("Validate() unexpected error: %v", err)
		}
	})

	t.Run("no stages", func(t *testing.T) {
		p := &Pipeline{}
		err := p.Validate()
		if err == nil || !strings.Contains(err.Error(), "no stages") {
			t.Errorf("Validate() error = %v, want no stages", err)
		}
	})

	t.Run("duplicate stage names", func(t *testing.T) {
		p := valid()
		p.Stages = append(p.Stages, Stage{Name: "build", Step: StepExec})
		err := p.Validate()
		if err == nil || !strings.Contains(err.Error(), "duplicate stage name") {
			t.Errorf("Validate() error = %v, want duplicate stage name", err)
		}
	})

	t.Run("post name colliding with stage name", func(t *testing.T) {
		p := valid()
		p.Post = []Stage{{Name: "build", Step: StepWorkspaceCleanup}}
		err := p.Validate()
		if err == nil || !strings.Contains(err.Error(), "duplicate stage name") {
			t.Errorf("Validate() error = %v, want duplicate stage name", err)
		}
	})
}

func TestKnownSteps(t *testing.T) {
	for _, name := range KnownSteps() {
		if !IsKnownStep(name) {
			t.Errorf("IsKnownStep(%q) = false for listed step", name)
		}
	}
	if IsKnownStep("teleport") {
		t.Error(`IsKnownStep("teleport") = true, want false`)
	}
	if IsKnownStep("") {
		t.Error(`IsKnownStep("") = true, want false`)
	}
}

func TestDurationYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{
			name:  "minutes",
			input: "10m",
			want:  10 * time.Minute,
		},
		{
			name:  "compound",
			input: "1h30m",
			want:  90 * time.Minute,
		},
		{
			name:  "integer seconds",
			input: "90",
			want:  90 * time.Second,
		},
		{
			name:    "invalid",
			input:   "soon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := yaml.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Unmarshal(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%q) error = %v", tt.input, err)
			}
			if d.Std() != tt.want {
				t.Errorf("Unmarshal(%q) = %v, want %v", tt.input, d.Std(), tt.want)
			}
		})
	}

	t.Run("marshal round trip", func(t *testing.T) {
		out, err := yaml.Marshal(Duration(10 * time.Minute))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if strings.TrimSpace(string(out)) != "10m0s" {
			t.Errorf("Marshal() = %q, want %q", strings.TrimSpace(string(out)), "10m0s")
		}
	})
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"5m"`), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if d.Std() != 5*time.Minute {
		t.Errorf("Unmarshal() = %v, want %v", d.Std(), 5*time.Minute)
	}

	if err := json.Unmarshal([]byte(`30`), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if d.Std() != 30*time.Second {
		t.Errorf("Unmarshal() = %v, want %v", d.Std(), 30*time.Second)
	}

	out, err := json.Marshal(Duration(5 * time.Minute))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `"5m0s"` {
		t.Errorf("Marshal() = %s, want %q", out, `"5m0s"`)
	}
}

func TestPipelineDecode(t *testing.T) {
	doc := `
apiVersion: skiff.nvidia.com/v1alpha1
kind: Pipeline
metadata:
  name: web
env:
  COMPOSE_FILE: docker-compose.yaml
stages:
  - name: build
    step: image-build
    timeout: 15m
    with:
      image: ${IMAGE_REF}
      context: .
  - name: deploy
    step: compose-deploy
    with:
      host: ${DEPLOY_HOST}
post:
  - name: cleanup
    step: workspace-cleanup
`

	var p Pipeline
	if err := yaml.Unmarshal([]byte(doc), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if p.Kind != header.KindPipeline {
		t.Errorf("Kind = %q, want %q", p.Kind, header.KindPipeline)
	}
	if p.APIVersion != APIVersion {
		t.Errorf("APIVersion = %q, want %q", p.APIVersion, APIVersion)
	}
	if p.Name() != "web" {
		t.Errorf("Name() = %q, want %q", p.Name(), "web")
	}
	if len(p.Stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2", len(p.Stages))
	}
	if p.Stages[0].Timeout.Std() != 15*time.Minute {
		t.Errorf("Stages[0].Timeout = %v, want 15m", p.Stages[0].Timeout.Std())
	}
	if p.Stages[0].With["image"] != "${IMAGE_REF}" {
		t.Errorf("Stages[0].With[image] = %q, want %q", p.Stages[0].With["image"], "${IMAGE_REF}")
	}
	if len(p.Post) != 1 || p.Post[0].Step != StepWorkspaceCleanup {
		t.Errorf("Post = %+v, want one workspace-cleanup stage", p.Post)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	want := []string{"build", "deploy"}
	got := p.StageNames()
	if len(got) != len(want) {
		t.Fatalf("StageNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("StageNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
