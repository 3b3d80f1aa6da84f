/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package step

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// execStep runs an opaque external command in the run workspace. The
// command is an argv split on whitespace; there is no shell, so quoting
// and expansion do not apply (interpolation already happened at load).
type execStep struct{}

func (execStep) Run(ctx context.Context, sc *Context) error {
	command, err := sc.RequireParam("command")
	if err != nil {
		return err
	}

	argv := strings.Fields(command)
	if len(argv) == 0 {
		return fmt.Errorf("step parameter \"command\" is empty")
	}

	return runCommand(ctx, sc, argv)
}

// runCommand is the shared external-process invocation used by exec and
// the image steps: resolve the binary, run it in the step directory with
// the run environment, and stream output to the step writers.
func runCommand(ctx context.Context, sc *Context, argv []string) error {
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", argv[0], err)
	}

	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	cmd.Dir = sc.Dir
	cmd.Env = sc.Environ()
	cmd.Stdout = sc.out()
	cmd.Stderr = sc.errOut()

	slog.Debug("running command",
		"cmd", argv[0],
		"args", len(argv)-1,
		"dir", cmd.Dir,
	)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Cmd: argv[0], Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}
	return nil
}
