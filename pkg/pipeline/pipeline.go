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
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/skiff/pkg/header"
)

// APIVersion is the current schema version for pipeline documents.
const APIVersion = "skiff.nvidia.com/v1alpha1"

// Environment variables of the binding run contract. The first group is
// consumed from the caller's environment; the second is injected by the
// runner for every run.
const (
	EnvRegistryNamespace = "REGISTRY_NAMESPACE"
	EnvDeployHost        = "DEPLOY_HOST"
	EnvComposeFile       = "COMPOSE_FILE"
	EnvEnvFile           = "ENV_FILE"
	EnvJobName           = "JOB_NAME"
	EnvBuildNumber       = "BUILD_NUMBER"

	EnvRunID     = "SKIFF_RUN_ID"
	EnvBuildTag  = "BUILD_TAG"
	EnvImageRef  = "IMAGE_REF"
	EnvWorkspace = "WORKSPACE"
)

// InjectedEnvKeys returns the variables the runner sets on every run.
func InjectedEnvKeys() []string {
	return []string{EnvRunID, EnvBuildTag, EnvImageRef, EnvWorkspace}
}

// Built-in step types a stage may bind to.
const (
	StepExec             = "exec"
	StepImageBuild       = "image-build"
	StepImagePush        = "image-push"
	StepRegistryLogin    = "registry-login"
	StepBundlePush       = "bundle-push"
	StepRemoteCopy       = "remote-copy"
	StepRemoteExec       = "remote-exec"
	StepComposeDeploy    = "compose-deploy"
	StepWorkspaceCleanup = "workspace-cleanup"
)

// KnownSteps returns all built-in step types in display order.
func KnownSteps() []string {
	return []string{
		StepExec,
		StepImageBuild,
		StepImagePush,
		StepRegistryLogin,
		StepBundlePush,
		StepRemoteCopy,
		StepRemoteExec,
		StepComposeDeploy,
		StepWorkspaceCleanup,
	}
}

// IsKnownStep reports whether name is a built-in step type.
func IsKnownStep(name string) bool {
	switch name {
	case StepExec, StepImageBuild, StepImagePush, StepRegistryLogin,
		StepBundlePush, StepRemoteCopy, StepRemoteExec,
		StepComposeDeploy, StepWorkspaceCleanup:
		return true
	default:
		return false
	}
}

// Duration is a time.Duration that reads naturally in documents ("10m",
// "90s"). Bare integers are taken as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the standard duration formatting.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML decodes a duration string or integer seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var secs int64
	if err := node.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// MarshalYAML encodes the duration as its string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalJSON decodes a duration string or integer seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var secs int64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// MarshalJSON encodes the duration as its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Stage binds a name to a step type and its parameters.
type Stage struct {
	// Name identifies the stage in results and logs. Unique per pipeline.
	Name string `json:"name" yaml:"name"`

	// Step is the built-in step type this stage invokes.
	Step string `json:"step" yaml:"step"`

	// Timeout bounds the stage. Zero means the runner default.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// With carries step parameters. Values support ${VAR} interpolation.
	With map[string]string `json:"with,omitempty" yaml:"with,omitempty"`
}

// Validate checks one stage.
func (s *Stage) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("stage name cannot be empty")
	}
	if s.Step == "" {
		return fmt.Errorf("stage %s has no step", s.Name)
	}
	if !IsKnownStep(s.Step) {
		return fmt.Errorf("stage %s uses unknown step %q", s.Name, s.Step)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("stage %s has negative timeout", s.Name)
	}
	return nil
}

// Pipeline is a delivery pipeline document.
type Pipeline struct {
	header.Header `json:",inline" yaml:",inline"`

	// Env is folded into the run environment before the first stage.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Stages run strictly in order; the first failure aborts the rest.
	Stages []Stage `json:"stages" yaml:"stages"`

	// Post stages always run, in order, after the main stages.
	Post []Stage `json:"post,omitempty" yaml:"post,omitempty"`
}

// Name returns the pipeline's metadata name, or empty.
func (p *Pipeline) Name() string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	return p.Metadata["name"]
}

// Validate performs structural validation of the document.
func (p *Pipeline) Validate() error {
	if p == nil {
		return fmt.Errorf("pipeline cannot be nil")
	}
	if p.Kind != "" && p.Kind != header.KindPipeline {
		return fmt.Errorf("unexpected kind %q, want %q", p.Kind, header.KindPipeline)
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline has no stages")
	}

	seen := make(map[string]bool, len(p.Stages)+len(p.Post))
	for i := range p.Stages {
		if err := p.Stages[i].Validate(); err != nil {
			return err
		}
		if seen[p.Stages[i].Name] {
			return fmt.Errorf("duplicate stage name %q", p.Stages[i].Name)
		}
		seen[p.Stages[i].Name] = true
	}
	for i := range p.Post {
		if err := p.Post[i].Validate(); err != nil {
			return err
		}
		if seen[p.Post[i].Name] {
			return fmt.Errorf("duplicate stage name %q", p.Post[i].Name)
		}
		seen[p.Post[i].Name] = true
	}
	return nil
}

// StageNames returns main stage names in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.Stages))
	for i := range p.Stages {
		names[i] = p.Stages[i].Name
	}
	return names
}
