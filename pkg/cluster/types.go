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

package cluster

import (
	"time"

	"github.com/NVIDIA/skiff/pkg/header"
)

// CheckStatus represents the outcome of a single verification check.
type CheckStatus string

const (
	// CheckStatusPass indicates the check succeeded.
	CheckStatusPass CheckStatus = "pass"

	// CheckStatusFail indicates the check failed.
	CheckStatusFail CheckStatus = "fail"

	// CheckStatusSkip indicates the check could not be evaluated.
	CheckStatusSkip CheckStatus = "skip"
)

// OverallStatus represents the aggregate verification outcome.
type OverallStatus string

const (
	// OverallStatusPass indicates every evaluated check passed.
	OverallStatusPass OverallStatus = "pass"

	// OverallStatusFail indicates one or more checks failed.
	OverallStatusFail OverallStatus = "fail"

	// OverallStatusPartial indicates no failures but skipped checks.
	OverallStatusPartial OverallStatus = "partial"
)

// CheckResult is one verification check outcome, named in the
// "K8s.server.version" convention.
type CheckResult struct {
	// Name is the fully qualified check name.
	Name string `json:"name" yaml:"name"`

	// Status is the check outcome.
	Status CheckStatus `json:"status" yaml:"status"`

	// Detail is the observed value.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Error explains a failure or skip.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NodeInfo is the readiness report for one node.
type NodeInfo struct {
	// Name is the node name.
	Name string `json:"name" yaml:"name"`

	// Ready reflects the NodeReady condition.
	Ready bool `json:"ready" yaml:"ready"`

	// KubeletVersion is the kubelet's reported version.
	KubeletVersion string `json:"kubeletVersion,omitempty" yaml:"kubeletVersion,omitempty"`

	// Message carries the NodeReady condition message when not ready.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Summary contains aggregate statistics for one verification run.
type Summary struct {
	// Passed is the count of successful checks.
	Passed int `json:"passed" yaml:"passed"`

	// Failed is the count of failed checks.
	Failed int `json:"failed" yaml:"failed"`

	// Skipped is the count of checks that could not be evaluated.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Total is the number of checks attempted.
	Total int `json:"total" yaml:"total"`

	// Status is the overall outcome.
	Status OverallStatus `json:"status" yaml:"status"`

	// Duration is how long the verification took.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// VerifyResult is the cluster verification report document.
type VerifyResult struct {
	header.Header `json:",inline" yaml:",inline"`

	// ServerVersion is the API server's reported git version.
	ServerVersion string `json:"serverVersion,omitempty" yaml:"serverVersion,omitempty"`

	// MinVersion is the version gate the server was checked against,
	// empty when no gate was requested.
	MinVersion string `json:"minVersion,omitempty" yaml:"minVersion,omitempty"`

	// Nodes holds per-node readiness details.
	Nodes []NodeInfo `json:"nodes,omitempty" yaml:"nodes,omitempty"`

	// Summary contains aggregate statistics.
	Summary Summary `json:"summary" yaml:"summary"`

	// Checks contains per-check details.
	Checks []CheckResult `json:"checks" yaml:"checks"`
}

// Passed reports whether the verification had no failures.
func (r *VerifyResult) Passed() bool {
	return r.Summary.Status != OverallStatusFail
}

// summarize fills the Summary from the check results.
func (r *VerifyResult) summarize(d time.Duration) {
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
