// Package header defines the common resource envelope shared by skiff
// documents (pipelines, run results, preflight and verify reports).
//
// Documents follow Kubernetes-style conventions:
//
//	apiVersion: skiff.nvidia.com/v1alpha1
//	kind: Pipeline
//	metadata:
//	  timestamp: "2025-01-15T10:30:00Z"
//	  version: v1.0.0
//
// The Header is embedded in document types and initialized via Init with
// the resource kind, schema apiVersion, and producing tool version.
package header
