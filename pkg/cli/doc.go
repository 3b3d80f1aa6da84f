/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the skiff command-line interface.
//
// The CLI exposes the delivery pipeline and its surrounding checks:
//
//   - run       - execute a pipeline document (or the built-in ship pipeline)
//   - lint      - validate and print a pipeline document
//   - preflight - host prerequisite checks for a deployment target
//   - verify    - read-only Kubernetes cluster health checks
//   - push      - push a directory to an OCI registry as a deploy bundle
//
// Commands follow a common shape: flags may source their values from the
// environment (the CI binding contract: JOB_NAME, BUILD_NUMBER,
// REGISTRY_NAMESPACE, DEPLOY_HOST, COMPOSE_FILE, ENV_FILE), results are
// documents serialized as YAML, JSON, or a table, and --output accepts a
// file path or a cm://namespace/name ConfigMap URI.
//
// Exit codes follow the pipeline contract: 0 success, 1 failure, 2 when
// the run was canceled by a signal.
package cli
