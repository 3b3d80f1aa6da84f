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

package preflight

import (
	"fmt"
	"time"

	"github.com/NVIDIA/skiff/pkg/header"
)

// Target selects the host profile the checks are run for.
type Target string

const (
	// TargetCompose is the deploy-host profile: a Docker engine with the
	// compose plugin, reachable over SSH.
	TargetCompose Target = "compose"

	// TargetKubernetes is the cluster-node profile: containerd plus the
	// kernel prerequisites for a kubeadm join.
	TargetKubernetes Target = "kubernetes"
)

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetCompose, TargetKubernetes:
		return Target(s), nil
	default:
		return "", fmt.Errorf("unknown preflight target %q (want %s or %s)",
			s, TargetCompose, TargetKubernetes)
	}
}

// CheckStatus represents the outcome of a single check.
type CheckStatus string

const (
	// CheckStatusPass indicates the requirement is satisfied.
	CheckStatusPass CheckStatus = "pass"

	// CheckStatusFail indicates the requirement is not satisfied.
	CheckStatusFail CheckStatus = "fail"

	// CheckStatusSkip indicates the check could not be evaluated on this
	// host (for example no systemd bus).
	CheckStatusSkip CheckStatus = "skip"
)

// OverallStatus represents the aggregate preflight outcome.
type OverallStatus string

const (
	// OverallStatusPass indicates every evaluated check passed.
	OverallStatusPass OverallStatus = "pass"

	// OverallStatusFail indicates one or more checks failed.
	OverallStatusFail OverallStatus = "fail"

	// OverallStatusPartial indicates no failures but some checks were
	// skipped.
	OverallStatusPartial OverallStatus = "partial"
)

// CheckResult is the outcome of one host check.
type CheckResult struct {
	// Name is the fully qualified check name (e.g. "Systemd.docker.service").
	Name string `json:"name" yaml:"name"`

	// Status is the check outcome.
	Status CheckStatus `json:"status" yaml:"status"`

	// Detail is the observed value or condition.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Error explains a failure or skip.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary contains aggregate statistics for one preflight run.
type Summary struct {
	// Passed is the count of satisfied checks.
	Passed int `json:"passed" yaml:"passed"`

	// Failed is the count of unsatisfied checks.
	Failed int `json:"failed" yaml:"failed"`

	// Skipped is the count of checks that could not be evaluated.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Total is the number of checks attempted.
	Total int `json:"total" yaml:"total"`

	// Status is the overall outcome.
	Status OverallStatus `json:"status" yaml:"status"`

	// Duration is how long the preflight run took.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result is the preflight report document.
type Result struct {
	header.Header `json:",inline" yaml:",inline"`

	// Target is the host profile that was checked.
	Target Target `json:"target" yaml:"target"`

	// Summary contains aggregate statistics.
	Summary Summary `json:"summary" yaml:"summary"`

	// Checks contains per-check details.
	Checks []CheckResult `json:"checks" yaml:"checks"`
}

// Passed reports whether the run had no failures.
func (r *Result) Passed() bool {
	return r.Summary.Status != OverallStatusFail
}

// summarize fills the Summary from the check results.
func (r *Result) summarize(d time.Duration) {
	s := Summary{Total: len(r.Checks), Duration: d}
	for _, c := range r.Checks {
		switch c.Status {
		case CheckStatusPass:
			s.Passed++
		case CheckStatusFail:
			s.Failed++
		case CheckStatusSkip:
			s.Skipped++
		}
	}
	switch {
	case s.Failed > 0:
		s.Status = OverallStatusFail
	case s.Skipped > 0:
		s.Status = OverallStatusPartial
	default:
		s.Status = OverallStatusPass
	}
	r.Summary = s
}
