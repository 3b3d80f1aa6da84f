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

package api

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/NVIDIA/skiff/pkg/logging"
	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/runner"
	"github.com/NVIDIA/skiff/pkg/server"
)

const (
	name           = "skiffd"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/skiff/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the webhook trigger daemon and blocks until shutdown.
// It configures logging, loads the pipeline document, wires the run
// service, and handles graceful shutdown. Returns an error if the
// server fails to start or encounters a fatal error.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLoggerWithLevel(name, version, os.Getenv("LOG_LEVEL"))
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	p, err := loadPipeline()
	if err != nil {
		slog.Error("failed to load pipeline", "error", err)
		return err
	}

	rs := &server.RunService{
		Runner:        runner.New(nil),
		Pipeline:      p,
		Job:           os.Getenv("SKIFF_JOB"),
		WorkspaceRoot: os.Getenv("SKIFF_WORKSPACE_ROOT"),
		KeepWorkspace: boolEnv("SKIFF_KEEP_WORKSPACE"),
		Version:       version,
	}

	// Create and run server
	s := server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(rs.Routes()),
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}

// loadPipeline reads the document named by SKIFF_PIPELINE, falling back
// to the built-in ship pipeline.
func loadPipeline() (*pipeline.Pipeline, error) {
	path := os.Getenv("SKIFF_PIPELINE")
	if path == "" {
		slog.Info("using built-in pipeline")
		return pipeline.Default(), nil
	}

	slog.Info("loading pipeline", "path", path)
	return pipeline.Load(path)
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
