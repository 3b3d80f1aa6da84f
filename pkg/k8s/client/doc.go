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

// Package client provides a singleton Kubernetes client for cluster interactions.
//
// This package centralizes Kubernetes API access using sync.Once so that a
// verify run and its report publication share one connection to the API
// server instead of each opening their own.
//
// # Singleton Pattern
//
// The client is initialized once on first use and cached for subsequent calls:
//
//	import "github.com/NVIDIA/skiff/pkg/k8s/client"
//
//	clientset, config, err := client.GetKubeClient()
//	if err != nil {
//	    return fmt.Errorf("failed to get kubernetes client: %w", err)
//	}
//
//	nodes, err := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
//
// # Custom Kubeconfig Path
//
// When the user passes --kubeconfig, use BuildKubeClient directly. This
// creates a fresh client and bypasses the singleton cache:
//
//	clientset, config, err := client.BuildKubeClient("/path/to/kubeconfig")
//
// # Authentication Modes
//
// In-cluster (running as a Pod or Job):
//   - Uses service account credentials from /var/run/secrets/kubernetes.io/serviceaccount/
//   - No additional configuration required
//
// Out-of-cluster (running on a CI node or workstation):
//   - Checks KUBECONFIG environment variable first
//   - Falls back to ~/.kube/config if KUBECONFIG not set
//   - Returns error if no valid kubeconfig found
//
// # Testing
//
// The Interface alias makes fake clients drop-in:
//
//	import "k8s.io/client-go/kubernetes/fake"
//
//	fakeClient := fake.NewSimpleClientset()
//	verifier := cluster.NewVerifier(cluster.WithClient(fakeClient))
//
// See also:
//   - pkg/cluster - cluster verification using this client
//   - pkg/serializer/configmap.go - ConfigMap serializer using this client
//   - pkg/serializer/reader.go - ConfigMap reader using this client
package client
