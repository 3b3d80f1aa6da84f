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

package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NVIDIA/skiff/pkg/defaults"
	"github.com/NVIDIA/skiff/pkg/header"
	"github.com/NVIDIA/skiff/pkg/k8s/client"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"
)

// ConfigMapURIScheme is the URI scheme for ConfigMap sources and sinks,
// as in cm://namespace/name.
const ConfigMapURIScheme = "cm://"

// configMapDataKey is the base data key documents are stored under. The
// serialized content lives at "<key>.<ext>" (document.yaml, document.json).
const configMapDataKey = "document"

// ConfigMapWriter writes serialized data to a Kubernetes ConfigMap.
// The ConfigMap is created if it doesn't exist, or updated if it does.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
}

// NewConfigMapWriter creates a new ConfigMapWriter that writes to the specified
// namespace and ConfigMap name in the given format.
func NewConfigMapWriter(namespace, name string, format Format) *ConfigMapWriter {
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	return &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    format,
	}
}

// Serialize writes the document to a ConfigMap with:
// - data.document.{yaml|json|txt}: the serialized content
// - data.format: the format used
// - data.timestamp: ISO 8601 timestamp of when the document was produced
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	// Bound the Kubernetes API operation independently of the caller
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	client, config, err := client.GetKubeClient()
	if err != nil {
		return fmt.Errorf("failed to get kubernetes client: %w", err)
	}

	// Log authentication context for audit
	authInfo := "default"
	switch {
	case config.AuthProvider != nil:
		authInfo = config.AuthProvider.Name
	case config.ExecProvider != nil:
		authInfo = "exec"
	case config.BearerToken != "":
		authInfo = "bearer-token"
	case config.CertData != nil:
		authInfo = "cert"
	}

	slog.Info("configmap operation",
		"namespace", w.namespace,
		"name", w.name,
		"auth_method", authInfo,
		"format", w.format)

	var content []byte
	var extension string
	switch w.format {
	case FormatJSON:
		content, err = encodeJSON(v)
		extension = "json"
	case FormatYAML:
		content, err = encodeYAML(v)
		extension = "yaml"
	case FormatTable:
		content, err = encodeTable(v)
		extension = "txt"
	default:
		return fmt.Errorf("unsupported format for ConfigMap: %s", w.format)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	// Extract header metadata when the document carries one
	var docVersion string
	var docKind string
	var docTimestamp string

	if headerData, ok := v.(interface {
		GetKind() header.Kind
		GetMetadata() map[string]string
	}); ok {
		docKind = headerData.GetKind().String()
		metadata := headerData.GetMetadata()
		if ver, exists := metadata["version"]; exists {
			docVersion = ver
		}
		if ts, exists := metadata["timestamp"]; exists {
			docTimestamp = ts
		}
	}

	if docVersion == "" {
		docVersion = "unknown"
	}
	if docKind == "" {
		docKind = header.KindRunResult.String()
	}
	if docTimestamp == "" {
		docTimestamp = time.Now().UTC().Format(time.RFC3339)
	}

	dataKey := fmt.Sprintf("%s.%s", configMapDataKey, extension)
	configMapData := map[string]string{
		dataKey:     string(content),
		"format":    string(w.format),
		"timestamp": docTimestamp,
	}

	configMap := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      "skiff",
			"app.kubernetes.io/component": docKind,
			"app.kubernetes.io/version":   docVersion,
		}).
		WithData(configMapData)

	// Server-Side Apply gives an atomic create-or-update; Force takes
	// ownership from previous field managers (CLI vs daemon)
	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"format", w.format)

	_, err = client.CoreV1().ConfigMaps(w.namespace).Apply(
		writeCtx,
		configMap,
		metav1.ApplyOptions{
			FieldManager: "skiff",
			Force:        true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap: %w", err)
	}

	return nil
}

// Close is a no-op for ConfigMapWriter as there are no resources to release.
// This method exists to satisfy the Closer interface.
func (w *ConfigMapWriter) Close() error {
	return nil
}

// parseConfigMapURI parses a ConfigMap URI in the format cm://namespace/name
// and returns the namespace and name components.
// Returns an error if the URI is malformed.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	path := strings.TrimPrefix(uri, ConfigMapURIScheme)

	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])

	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}

	return namespace, name, nil
}
