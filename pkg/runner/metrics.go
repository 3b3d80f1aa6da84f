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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run-level metrics
	runTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiff_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"}, // succeeded, failed, canceled
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skiff_run_duration_seconds",
			Help:    "Wall-clock duration of complete pipeline runs",
			Buckets: []float64{1, 5, 15, 60, 120, 300, 600, 1800},
		},
	)

	runsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skiff_runs_in_flight",
			Help: "Number of pipeline runs currently executing",
		},
	)

	// Stage-level metrics
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skiff_stage_duration_seconds",
			Help:    "Time taken by individual pipeline stages",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 120, 300, 600},
		},
		[]string{"stage", "step"},
	)

	stageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiff_stages_total",
			Help: "Total number of stage executions by outcome",
		},
		[]string{"step", "status"},
	)
)
