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

// Package k8s provides Kubernetes integration for skiff.
//
// This package contains sub-packages for Kubernetes cluster interaction:
//
// # Sub-packages
//
// client: Singleton Kubernetes client with automatic authentication
//
//	clientset, config, err := client.GetKubeClient()
//	if err != nil {
//	    return err
//	}
//	// Use clientset for API operations
//
// # Architecture
//
//   - Singleton Pattern: the client package uses sync.Once so one Kubernetes
//     client instance is shared across a run, preventing connection
//     exhaustion and reducing API server load.
//
//   - Automatic Authentication: the client detects whether it is running
//     in-cluster (service account) or out-of-cluster (kubeconfig file).
//
// # Usage Patterns
//
// Import and use the client sub-package:
//
//	import "github.com/NVIDIA/skiff/pkg/k8s/client"
//
//	// Get shared client instance
//	clientset, _, err := client.GetKubeClient()
//
// The cluster package builds on this client for post-deploy verification,
// and the serializer package for ConfigMap sources and sinks.
//
// # Thread Safety
//
// The client sub-package uses sync.Once for thread-safe initialization and
// is safe for concurrent use.
package k8s
