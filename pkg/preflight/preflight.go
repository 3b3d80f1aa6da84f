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

// Package preflight runs the host prerequisite checks for a deploy
// target: systemd units, kernel modules, sysctl values, swap state, and
// the compose plugin. Checks run in parallel and report pass/fail/skip
// per check plus an aggregate summary.
package preflight

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/skiff/pkg/defaults"
	"github.com/NVIDIA/skiff/pkg/header"
	"github.com/NVIDIA/skiff/pkg/pipeline"
)

// Checker runs the preflight checks for one target profile.
type Checker struct {
	// Target selects the check profile. Required.
	Target Target

	// Units overrides the default systemd units for the target.
	Units []string

	// Version is stamped on the result document.
	Version string
}

// defaultUnits returns the systemd units the target profile requires.
func defaultUnits(target Target) []string {
	switch target {
	case TargetKubernetes:
		return []string{"containerd.service"}
	default:
		return []string{"docker.service"}
	}
}

// checksFor assembles the check list for the target.
func (c *Checker) checksFor() []check {
	units := c.Units
	if len(units) == 0 {
		units = defaultUnits(c.Target)
	}

	checks := make([]check, 0, len(units)+6)
	for _, u := range units {
		checks = append(checks, systemdUnitCheck(u))
	}

	switch c.Target {
	case TargetKubernetes:
		checks = append(checks,
			kmodCheck("overlay"),
			kmodCheck("br_netfilter"),
			sysctlCheck("net.ipv4.ip_forward", "1"),
			sysctlCheck("net.bridge.bridge-nf-call-iptables", "1"),
			swapCheck(),
		)
	default:
		checks = append(checks, composeCheck())
	}

	return checks
}

// Run executes all checks for the target in parallel and returns the
// report document. Check failures are reported in the result, not as an
// error.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	if _, err := ParseTarget(string(c.Target)); err != nil {
		return nil, err
	}

	checks := c.checksFor()

	result := &Result{
		Target: c.Target,
		Checks: make([]CheckResult, len(checks)),
	}
	result.Init(header.KindPreflightResult, pipeline.APIVersion, c.Version)

	slog.Debug("starting preflight", "target", c.Target, "checks", len(checks))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, ck := range checks {
		g.Go(func() error {
			checkStart := time.Now()
			defer func() {
				checkDuration.WithLabelValues(ck.name).Observe(time.Since(checkStart).Seconds())
			}()

			probeCtx, cancel := context.WithTimeout(gctx, defaults.CheckTimeout)
			defer cancel()

			result.Checks[i] = ck.probe(probeCtx)
			return nil
		})
	}
	// Probes report failures through their result slot
	_ = g.Wait()

	result.summarize(time.Since(start))
	preflightTotal.WithLabelValues(string(result.Summary.Status)).Inc()
	preflightDuration.Observe(result.Summary.Duration.Seconds())

	slog.Info("preflight complete",
		"target", c.Target,
		"status", result.Summary.Status,
		"passed", result.Summary.Passed,
		"failed", result.Summary.Failed,
		"skipped", result.Summary.Skipped,
	)

	return result, nil
}
