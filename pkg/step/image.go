/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package step

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NVIDIA/skiff/pkg/oci"
	"github.com/NVIDIA/skiff/pkg/pipeline"
)

// defaultBuilder is the container builder binary invoked by the image
// steps when a stage does not name one.
const defaultBuilder = "docker"

// imageBuildStep wraps the container-image builder. The builder itself is
// an opaque external tool; the step only validates the reference and
// assembles the invocation.
type imageBuildStep struct{}

func (imageBuildStep) Run(ctx context.Context, sc *Context) error {
	image, err := imageRef(sc)
	if err != nil {
		return err
	}

	builder := sc.ParamOr("builder", defaultBuilder)
	buildContext := sc.ParamOr("context", ".")

	argv := []string{builder, "build", "-t", image}
	if dockerfile := sc.Param("dockerfile"); dockerfile != "" {
		argv = append(argv, "-f", dockerfile)
	}
	argv = append(argv, buildContext)

	slog.Info("building image",
		"image", image,
		"builder", builder,
		"context", buildContext,
	)

	return runCommand(ctx, sc, argv)
}

// imagePushStep wraps the registry client push for the image produced by
// the build stage.
type imagePushStep struct{}

func (imagePushStep) Run(ctx context.Context, sc *Context) error {
	image, err := imageRef(sc)
	if err != nil {
		return err
	}

	builder := sc.ParamOr("builder", defaultBuilder)

	slog.Info("pushing image", "image", image)

	return runCommand(ctx, sc, []string{builder, "push", image})
}

// imageRef resolves the stage's image reference from the "image" parameter
// or the runner-injected IMAGE_REF, and validates its shape before any
// external tool sees it.
func imageRef(sc *Context) (string, error) {
	image := sc.Param("image")
	if image == "" {
		image = sc.EnvOr(pipeline.EnvImageRef, "")
	}
	if image == "" {
		return "", fmt.Errorf("step parameter %q is required", "image")
	}
	if err := oci.ValidateImageReference(image); err != nil {
		return "", err
	}
	return image, nil
}
