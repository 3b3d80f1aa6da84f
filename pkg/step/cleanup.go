/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package step

import (
	"context"
	"fmt"
	"log/slog"
)

// workspaceCleanupStep removes the run workspace. It is the always-run
// post stage of the ship pipeline, so it must succeed on a workspace that
// was never fully staged.
type workspaceCleanupStep struct{}

func (workspaceCleanupStep) Run(_ context.Context, sc *Context) error {
	if sc.Workspace == nil {
		return nil
	}

	if sc.KeepWorkspace {
		slog.Info("keeping workspace", "dir", sc.Workspace.Dir())
		fmt.Fprintf(sc.out(), "workspace kept: %s\n", sc.Workspace.Dir())
		return nil
	}

	return sc.Workspace.Cleanup()
}
