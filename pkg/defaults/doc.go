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

// Package defaults provides centralized configuration constants for skiff.
//
// This package defines timeout values and other configuration defaults used
// across the codebase. Centralizing these values ensures consistency and
// makes tuning easier.
//
// # Timeout Categories
//
// Timeouts are organized by component:
//
//   - Stage timeouts: For pipeline stage execution
//   - Remote timeouts: For SSH connect and command execution
//   - Registry timeouts: For OCI registry operations
//   - Check timeouts: For preflight host checks
//   - Kubernetes timeouts: For cluster verification API calls
//   - Server timeouts: For the webhook daemon HTTP server
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/NVIDIA/skiff/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.StageTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
// When choosing timeout values:
//
//   - Stages: 10m default; build stages dominate pipeline duration
//   - Remote: 15s connect, 5m command (remote compose pulls images)
//   - Registry: 2m push, 15s credential probe
//   - Server shutdown: 30s for graceful shutdown
package defaults
