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

package step

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/workspace"
)

// Step is one built-in stage behavior.
type Step interface {
	// Run executes the step. A returned error fails the stage; an
	// *ExitError additionally carries the external exit code.
	Run(ctx context.Context, sc *Context) error
}

// Context carries everything a step may need at run time.
type Context struct {
	// Workspace is the run's scratch directory manager.
	Workspace *workspace.Workspace

	// Dir is the invocation working directory (the build context root).
	Dir string

	// Env is the run-specific environment overlay: the binding contract
	// variables, runner injections, and the pipeline env block. Child
	// processes receive the full process environment plus this overlay.
	Env map[string]string

	// With holds the stage's interpolated parameters.
	With map[string]string

	// KeepWorkspace tells cleanup steps to leave the run directory in
	// place for inspection.
	KeepWorkspace bool

	// Stdout and Stderr receive step output. Nil writers discard.
	Stdout io.Writer
	Stderr io.Writer
}

// Param returns the named stage parameter, or empty.
func (c *Context) Param(key string) string {
	return c.With[key]
}

// ParamOr returns the named parameter or def when unset.
func (c *Context) ParamOr(key, def string) string {
	if v, ok := c.With[key]; ok && v != "" {
		return v
	}
	return def
}

// RequireParam returns the named parameter or an error naming it.
func (c *Context) RequireParam(key string) (string, error) {
	if v, ok := c.With[key]; ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("step parameter %q is required", key)
}

// BoolParam parses the named parameter as a bool, false when unset or
// malformed.
func (c *Context) BoolParam(key string) bool {
	return c.BoolParamOr(key, false)
}

// BoolParamOr parses the named parameter as a bool, def when unset or
// malformed.
func (c *Context) BoolParamOr(key string, def bool) bool {
	v, ok := c.With[key]
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvOr returns the run environment value or def when unset.
func (c *Context) EnvOr(key, def string) string {
	if v, ok := c.Env[key]; ok && v != "" {
		return v
	}
	return def
}

// Environ returns the child-process environment: the full process
// environment with the run overlay appended (later entries win).
func (c *Context) Environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

func (c *Context) out() io.Writer {
	if c.Stdout == nil {
		return io.Discard
	}
	return c.Stdout
}

func (c *Context) errOut() io.Writer {
	if c.Stderr == nil {
		return io.Discard
	}
	return c.Stderr
}

// ExitError reports a non-zero exit from an external tool or remote
// command.
type ExitError struct {
	Cmd  string
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Cmd, e.Code)
}

// ExitCode maps a step error to a stage exit code: 0 on nil, the external
// code for an *ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Registry maps step type names to implementations.
type Registry struct {
	steps map[string]Step
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
	}
}

// Register adds a step under name. Registering a name twice is an error.
func (r *Registry) Register(name string, s Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[name]; exists {
		return fmt.Errorf("step type %s already registered", name)
	}
	r.steps[name] = s
	return nil
}

// MustRegister panics on registration error.
func (r *Registry) MustRegister(name string, s Step) {
	if err := r.Register(name, s); err != nil {
		panic(err)
	}
}

// Get retrieves a step by type name.
func (r *Registry) Get(name string) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.steps[name]
	return s, ok
}

// Names returns all registered step type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered steps.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// Defaults returns a registry holding every built-in step.
func Defaults() *Registry {
	r := NewRegistry()
	r.MustRegister(pipeline.StepExec, execStep{})
	r.MustRegister(pipeline.StepImageBuild, imageBuildStep{})
	r.MustRegister(pipeline.StepImagePush, imagePushStep{})
	r.MustRegister(pipeline.StepRegistryLogin, registryLoginStep{})
	r.MustRegister(pipeline.StepBundlePush, bundlePushStep{})
	r.MustRegister(pipeline.StepRemoteCopy, remoteCopyStep{})
	r.MustRegister(pipeline.StepRemoteExec, remoteExecStep{})
	r.MustRegister(pipeline.StepComposeDeploy, composeDeployStep{})
	r.MustRegister(pipeline.StepWorkspaceCleanup, workspaceCleanupStep{})
	return r
}
