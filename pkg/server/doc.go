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

// Package server implements the HTTP surface of the skiff webhook daemon.
//
// The server accepts pipeline triggers and reports run history. It is a
// stateless HTTP API with the following components:
//
//   - Rate limiting using a token bucket (golang.org/x/time/rate)
//   - Request ID tracking for distributed tracing
//   - Panic recovery for resilience
//   - Graceful shutdown on SIGINT/SIGTERM
//   - Health and readiness probes for Kubernetes
//   - Prometheus metrics on /metrics
//
// # Usage
//
// Handlers are registered through options; the RunService supplies the
// pipeline endpoints:
//
//	rs := &server.RunService{Runner: runner.New(nil), Pipeline: pipeline.Default()}
//
//	s := server.New(
//	    server.WithName("skiffd"),
//	    server.WithVersion(version),
//	    server.WithHandler(rs.Routes()),
//	)
//	if err := s.Run(ctx); err != nil {
//	    // ...
//	}
//
// # API Endpoints
//
// POST /v1/runs - Trigger a pipeline run
//
//	Body (all fields optional):
//	  {"job": "web", "build": "42", "env": {"DEPLOY_HOST": "..."},
//	   "keepWorkspace": true}
//
//	Returns 202 Accepted with the run identity. Runs are serialized:
//	while one is in flight, further triggers return 409 Conflict.
//
// GET /v1/runs - List completed runs, newest first
//
// GET /v1/runs/{id} - Fetch one completed run by its run ID
//
// GET /health - Health check (for liveness probe)
//
//	Always returns 200 OK with {"status": "healthy", "timestamp": "..."}
//
// GET /ready - Readiness check (for readiness probe)
//
//	Returns 200 OK when ready, 503 when not ready
//
// # Observability
//
// Request ID Tracking:
//
//	All requests accept an optional X-Request-Id header (UUID format).
//	If not provided, the server generates one automatically.
//	The request ID is returned in the X-Request-Id response header
//	and included in all error responses for tracing.
//
// Rate Limiting:
//
//	Response headers indicate rate limit status:
//	  X-RateLimit-Limit: Total requests allowed per window
//	  X-RateLimit-Remaining: Requests remaining in current window
//	  X-RateLimit-Reset: Unix timestamp when window resets
//
//	When rate limited, returns 429 with Retry-After header.
//
// # Error Handling
//
// All errors return a consistent JSON structure:
//
//	{
//	  "code": "CONFLICT",
//	  "message": "A run is already in flight",
//	  "details": {"runId": "550e8400-e29b-41d4-a716-446655440000"},
//	  "requestId": "6fa459ea-ee8a-3ca4-894e-db77e160355e",
//	  "timestamp": "2025-12-22T12:00:00Z",
//	  "retryable": true
//	}
//
// Error codes come from the shared taxonomy in pkg/errors:
//   - INVALID_REQUEST: Malformed trigger body (400)
//   - CONFLICT: A run is already in flight (409)
//   - NOT_FOUND: Unknown run ID (404)
//   - RATE_LIMIT_EXCEEDED: Too many requests (429)
//   - INTERNAL: Server error (500)
package server
