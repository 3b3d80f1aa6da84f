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

// Package cluster verifies a Kubernetes deploy target is ready to
// receive workloads: API server version, control plane health, and node
// readiness. All access is read-only.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/skiff/pkg/header"
	k8sclient "github.com/NVIDIA/skiff/pkg/k8s/client"
	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/version"
)

// Verifier runs read-only checks against one cluster.
type Verifier struct {
	// Client is the Kubernetes client to verify against. Required.
	Client k8sclient.Interface

	// MinVersion gates the server version when non-empty ("1.28" accepts
	// any 1.28.x server).
	MinVersion string

	// Version is stamped on the result document.
	Version string
}

// NewVerifier builds a Verifier for the given kubeconfig path. An empty
// path uses the standard discovery order (KUBECONFIG, ~/.kube/config,
// in-cluster).
func NewVerifier(kubeconfig, minVersion, buildVersion string) (*Verifier, error) {
	var (
		client k8sclient.Interface
		err    error
	)
	if kubeconfig != "" {
		client, _, err = k8sclient.GetKubeClientWithConfig(kubeconfig)
	} else {
		client, _, err = k8sclient.GetKubeClient()
	}
	if err != nil {
		return nil, err
	}

	return &Verifier{
		Client:     client,
		MinVersion: minVersion,
		Version:    buildVersion,
	}, nil
}

// Verify runs all checks and returns the report document. Check failures
// are reported in the result, not as an error; an error means the
// verification itself could not run.
func (v *Verifier) Verify(ctx context.Context) (*VerifyResult, error) {
	if v.Client == nil {
		return nil, fmt.Errorf("verifier has no kubernetes client")
	}

	result := &VerifyResult{MinVersion: v.MinVersion}
	result.Init(header.KindVerifyResult, pipeline.APIVersion, v.Version)

	start := time.Now()

	result.Checks = append(result.Checks, v.checkServerVersion(result))
	result.Checks = append(result.Checks, v.checkReadyz(ctx))
	nodeChecks, nodes, err := v.checkNodes(ctx)
	if err != nil {
		return nil, err
	}
	result.Checks = append(result.Checks, nodeChecks...)
	result.Nodes = nodes

	result.summarize(time.Since(start))

	slog.Info("cluster verification complete",
		"status", result.Summary.Status,
		"serverVersion", result.ServerVersion,
		"nodes", len(result.Nodes),
	)

	return result, nil
}

// checkServerVersion reads the API server version and applies the
// optional minimum-version gate.
func (v *Verifier) checkServerVersion(result *VerifyResult) CheckResult {
	const name = "K8s.server.version"

	info, err := v.Client.Discovery().ServerVersion()
	if err != nil {
		return CheckResult{Name: name, Status: CheckStatusFail,
			Error: fmt.Sprintf("failed to get server version: %v", err)}
	}
	result.ServerVersion = info.GitVersion

	if v.MinVersion == "" {
		return CheckResult{Name: name, Status: CheckStatusPass, Detail: info.GitVersion}
	}

	min, err := version.Parse(v.MinVersion)
	if err != nil {
		return CheckResult{Name: name, Status: CheckStatusFail, Detail: info.GitVersion,
			Error: fmt.Sprintf("invalid min version %q: %v", v.MinVersion, err)}
	}
	got, err := version.Parse(info.GitVersion)
	if err != nil {
		return CheckResult{Name: name, Status: CheckStatusFail, Detail: info.GitVersion,
			Error: fmt.Sprintf("unparseable server version %q: %v", info.GitVersion, err)}
	}
	if !got.AtLeast(min) {
		return CheckResult{Name: name, Status: CheckStatusFail, Detail: info.GitVersion,
			Error: fmt.Sprintf("server %s is older than required %s", got, min)}
	}
	return CheckResult{Name: name, Status: CheckStatusPass, Detail: info.GitVersion}
}

// checkReadyz probes the control plane /readyz endpoint. Fake clients
// expose no REST client, so the check is skipped rather than failed when
// one is unavailable.
func (v *Verifier) checkReadyz(ctx context.Context) CheckResult {
	const name = "K8s.controlplane.readyz"

	rc := v.Client.Discovery().RESTClient()
	if rc == nil {
		return CheckResult{Name: name, Status: CheckStatusSkip,
			Error: "no REST client available"}
	}

	body, err := rc.Get().AbsPath("/readyz").DoRaw(ctx)
	if err != nil {
		return CheckResult{Name: name, Status: CheckStatusFail,
			Error: fmt.Sprintf("control plane not ready: %v", err)}
	}
	return CheckResult{Name: name, Status: CheckStatusPass,
		Detail: strings.TrimSpace(string(body))}
}

// checkNodes lists nodes and evaluates the NodeReady condition on each.
func (v *Verifier) checkNodes(ctx context.Context) ([]CheckResult, []NodeInfo, error) {
	list, err := v.Client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	checks := make([]CheckResult, 0, len(list.Items))
	nodes := make([]NodeInfo, 0, len(list.Items))

	for i := range list.Items {
		node := &list.Items[i]
		name := "K8s.node." + node.Name

		info := NodeInfo{
			Name:           node.Name,
			KubeletVersion: node.Status.NodeInfo.KubeletVersion,
		}

		ready, message := nodeReadyCondition(node)
		info.Ready = ready
		if !ready {
			info.Message = message
		}
		nodes = append(nodes, info)

		if ready {
			checks = append(checks, CheckResult{Name: name, Status: CheckStatusPass,
				Detail: info.KubeletVersion})
		} else {
			checks = append(checks, CheckResult{Name: name, Status: CheckStatusFail,
				Detail: info.KubeletVersion, Error: message})
		}
	}

	return checks, nodes, nil
}

// nodeReadyCondition evaluates the NodeReady condition. A node without
// the condition is treated as not ready.
func nodeReadyCondition(node *corev1.Node) (bool, string) {
	for _, cond := range node.Status.Conditions {
		if cond.Type != corev1.NodeReady {
			continue
		}
		if cond.Status == corev1.ConditionTrue {
			return true, ""
		}
		msg := cond.Message
		if msg == "" {
			msg = fmt.Sprintf("NodeReady is %s", cond.Status)
		}
		return false, msg
	}
	return false, "node has no NodeReady condition"
}
