/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	apperrors "github.com/NVIDIA/skiff/pkg/errors"
	"github.com/NVIDIA/skiff/pkg/serializer"
)

// Load reads and validates a pipeline document. The path may be a local
// file, an http(s) URL, or a cm://namespace/name ConfigMap reference.
func Load(path string) (*Pipeline, error) {
	p, err := serializer.FromFile[Pipeline](path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to load pipeline from %s", path), err)
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid pipeline %s", path), err)
	}
	return p, nil
}

// Interpolate expands ${VAR} references in the env block and all stage
// parameters against the process environment overlaid with extra (the
// runner's injected variables). Any unresolved reference fails the whole
// pipeline up front rather than mid-run. Env block values may reference
// process and injected variables, not each other.
func (p *Pipeline) Interpolate(extra map[string]string) error {
	scope := processEnv()
	for k, v := range extra {
		scope[k] = v
	}

	missing := make(map[string]bool)
	expand := func(s string) string {
		return os.Expand(s, func(name string) string {
			if name == "$" {
				return "$"
			}
			if v, ok := scope[name]; ok {
				return v
			}
			missing[name] = true
			return ""
		})
	}

	for k, v := range p.Env {
		ev := expand(v)
		p.Env[k] = ev
		// Injected variables stay authoritative
		if _, reserved := extra[k]; !reserved {
			scope[k] = ev
		}
	}

	for i := range p.Stages {
		for k, v := range p.Stages[i].With {
			p.Stages[i].With[k] = expand(v)
		}
	}
	for i := range p.Post {
		for k, v := range p.Post[i].With {
			p.Post[i].With[k] = expand(v)
		}
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unresolved variables: %s", strings.Join(names, ", ")),
			map[string]any{"variables": names})
	}
	return nil
}

func processEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.Index(kv, "="); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
