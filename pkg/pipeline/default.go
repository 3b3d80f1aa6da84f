/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"github.com/NVIDIA/skiff/pkg/header"
)

// DefaultName is the metadata name of the built-in ship pipeline.
const DefaultName = "ship"

// Default returns the built-in ship pipeline: probe registry credentials,
// build the image, push it, deploy to the target host with compose, and
// always clean the workspace. Every parameter resolves from the binding
// environment contract, so the pipeline needs no document on disk.
func Default() *Pipeline {
	p := &Pipeline{
		Stages: []Stage{
			{
				Name: "login",
				Step: StepRegistryLogin,
				With: map[string]string{
					"image": "${" + EnvImageRef + "}",
				},
			},
			{
				Name: "build",
				Step: StepImageBuild,
				With: map[string]string{
					"image":   "${" + EnvImageRef + "}",
					"context": ".",
				},
			},
			{
				Name: "push",
				Step: StepImagePush,
				With: map[string]string{
					"image": "${" + EnvImageRef + "}",
				},
			},
			{
				Name: "deploy",
				Step: StepComposeDeploy,
				With: map[string]string{
					"host":         "${" + EnvDeployHost + "}",
					"compose-file": "${" + EnvComposeFile + "}",
					"env-file":     "${" + EnvEnvFile + "}",
					"remote-dir":   ".",
				},
			},
		},
		Post: []Stage{
			{
				Name: "cleanup",
				Step: StepWorkspaceCleanup,
			},
		},
	}
	p.Init(header.KindPipeline, APIVersion, "")
	p.Metadata["name"] = DefaultName
	return p
}
