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

// Package serializer provides encoding and decoding of pipeline documents
// and run reports in multiple formats.
//
// # Overview
//
// The serializer package handles conversion between skiff data structures
// (pipeline documents, run results, preflight and verify reports) and the
// supported output formats. It covers both encoding (writing reports) and
// decoding (loading documents) with automatic format detection.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, suitable for API responses and CI artifact capture
//   - Standard encoding/json package
//
// YAML:
//   - Human-readable, suitable for pipeline files and version control
//   - gopkg.in/yaml.v3 package
//
// Table:
//   - Flattened key/value view for terminal output
//   - Write-only (no deserialization support)
//
// # Sources and Sinks
//
// Readers accept local file paths, HTTP and HTTPS URLs, and ConfigMap URIs
// in the form cm://namespace/name. Writers accept local file paths, stdout,
// and the same ConfigMap URIs, so a verify report can land directly in the
// cluster it describes:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "cm://ci/deploy-report")
//	defer w.(serializer.Closer).Close()
//	if err := w.Serialize(ctx, report); err != nil {
//	    return err
//	}
//
// Loading a typed document in one call:
//
//	doc, err := serializer.FromFile[pipeline.Pipeline]("ship.yaml")
//
// # Format Detection
//
// File extension-based detection:
//   - .json → JSON
//   - .yaml, .yml → YAML
//   - .table, .txt → Table
//   - Other → JSON (default)
//
// # Resource Management
//
// Writers and readers that hold file handles must be closed. Close is
// idempotent and safe on stdout-backed instances.
//
// # Integration
//
// Used throughout skiff for data I/O:
//   - pkg/cli - Command output formatting
//   - pkg/runner - Run report serialization
//   - pkg/cluster - Verify report publication to ConfigMaps
//   - pkg/api - HTTP response encoding
package serializer
