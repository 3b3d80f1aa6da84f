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

package defaults

import "time"

// Stage timeouts for pipeline execution.
const (
	// StageTimeout is the default per-stage timeout when a pipeline does
	// not declare one. Build stages routinely take minutes.
	StageTimeout = 10 * time.Minute

	// PostStageTimeout bounds always-run post stages (cleanup). Post work
	// must finish even after a canceled run, so it gets a fresh budget.
	PostStageTimeout = 2 * time.Minute

	// RunTimeout is the overall ceiling for a full pipeline run.
	RunTimeout = 30 * time.Minute
)

// Remote timeouts for SSH operations against the deploy host.
const (
	// RemoteConnectTimeout is the timeout for establishing SSH connections.
	RemoteConnectTimeout = 15 * time.Second

	// RemoteCommandTimeout is the default timeout for remote command
	// execution. Remote compose up pulls images, so this is generous.
	RemoteCommandTimeout = 5 * time.Minute

	// RemoteCopyTimeout is the timeout for copying a single file to the
	// deploy host.
	RemoteCopyTimeout = 2 * time.Minute
)

// Registry timeouts for OCI operations.
const (
	// RegistryPushTimeout is the timeout for pushing a bundle artifact.
	RegistryPushTimeout = 2 * time.Minute

	// RegistryLoginTimeout is the timeout for the credential probe.
	RegistryLoginTimeout = 15 * time.Second
)

// Check timeouts for preflight host checks.
const (
	// CheckTimeout is the default timeout for a single preflight check.
	// Checks should respect parent context deadlines when shorter.
	CheckTimeout = 10 * time.Second

	// PreflightTimeout bounds the whole preflight sweep.
	PreflightTimeout = 1 * time.Minute
)

// Kubernetes timeouts for cluster verification API calls.
const (
	// ClusterAPITimeout is the timeout for Kubernetes API calls.
	ClusterAPITimeout = 30 * time.Second

	// ClusterVerifyTimeout bounds the whole verification sweep.
	ClusterVerifyTimeout = 2 * time.Minute

	// ConfigMapWriteTimeout is the timeout for writing reports to ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests (remote pipeline fetch).
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)

// Server timeouts for the webhook daemon HTTP server.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)
