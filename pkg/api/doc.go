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

// Package api provides the HTTP layer of the skiff webhook daemon.
//
// This package acts as a thin wrapper around the reusable pkg/server
// package, configuring it with the run trigger service from pkg/server's
// RunService. It exposes pipeline execution over REST so CI webhooks can
// trigger delivery runs without a local skiff binary.
//
// # Usage
//
// To start the daemon:
//
//	package main
//
//	import (
//	    "log"
//	    "github.com/NVIDIA/skiff/pkg/api"
//	)
//
//	func main() {
//	    if err := api.Serve(); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// # Architecture
//
// The API layer is responsible for:
//   - Configuring structured logging with application name and version
//   - Loading the pipeline document the daemon executes
//   - Wiring the run service routes (/v1/runs)
//   - Delegating server lifecycle management to pkg/server
//
// The pkg/server package handles:
//   - HTTP server setup and graceful shutdown
//   - Middleware (rate limiting, logging, metrics, panic recovery)
//   - Health and readiness endpoints
//   - Prometheus metrics
//
// # Endpoints
//
// Application Endpoints (with rate limiting):
//   - POST /v1/runs      - Trigger a pipeline run (202 Accepted, 409 while busy)
//   - GET  /v1/runs      - List completed runs, newest first
//   - GET  /v1/runs/{id} - Fetch one completed run
//
// System Endpoints (no rate limiting):
//   - GET /health  - Health check (liveness probe)
//   - GET /ready   - Readiness check
//   - GET /metrics - Prometheus metrics
//
// # Configuration
//
// The daemon is configured via environment variables:
//   - PORT: HTTP server port (default: 8080)
//   - LOG_LEVEL: Logging level (debug, info, warn, error)
//   - SKIFF_PIPELINE: Path to the pipeline document (default: built-in)
//   - SKIFF_JOB: Default job name for triggers that carry none
//   - SKIFF_WORKSPACE_ROOT: Workspace root directory
//   - SKIFF_KEEP_WORKSPACE: Keep run workspaces after cleanup ("true")
//
// The run binding variables (REGISTRY_NAMESPACE, DEPLOY_HOST,
// COMPOSE_FILE, ENV_FILE) are read from the daemon's environment and
// folded into every triggered run.
//
// Version information is set at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/skiff/pkg/api.version=1.0.0'"
package api
