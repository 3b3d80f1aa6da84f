/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Copy uploads a single local file into remoteDir on the target host using
// the scp sink protocol. The file keeps its base name and permission bits.
func (c *Client) Copy(ctx context.Context, localPath, remoteDir string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory, copy files individually", localPath)
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session on %s: %w", c.host, err)
	}
	defer func() { _ = session.Close() }()

	// Drain the sink's ack bytes so the remote never blocks on stdout
	session.Stdout = io.Discard

	pipe, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdin pipe: %w", err)
	}

	if err := session.Start(fmt.Sprintf("scp -qt %s", ShellQuote(remoteDir))); err != nil {
		return fmt.Errorf("failed to start scp sink on %s: %w", c.host, err)
	}

	name := filepath.Base(localPath)
	if _, err := fmt.Fprintf(pipe, "C%#o %d %s\n", fi.Mode().Perm(), fi.Size(), name); err != nil {
		return fmt.Errorf("failed to send scp header for %s: %w", name, err)
	}
	if _, err := io.Copy(pipe, f); err != nil {
		return fmt.Errorf("failed to stream %s: %w", name, err)
	}
	if _, err := fmt.Fprint(pipe, "\x00"); err != nil {
		return fmt.Errorf("failed to finish scp transfer for %s: %w", name, err)
	}
	_ = pipe.Close()

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return ctx.Err()
	case err = <-done:
	}
	if err != nil {
		return fmt.Errorf("scp of %s to %s:%s failed: %w", name, c.host, remoteDir, err)
	}

	slog.Debug("file copied to remote host",
		"file", name,
		"host", c.host,
		"dir", remoteDir,
		"bytes", fi.Size(),
	)

	return nil
}

// CopyAll uploads each local file into remoteDir, stopping at the first
// failure.
func (c *Client) CopyAll(ctx context.Context, localPaths []string, remoteDir string) error {
	for _, p := range localPaths {
		if err := c.Copy(ctx, p, remoteDir); err != nil {
			return err
		}
	}
	return nil
}

// ShellQuote wraps s in single quotes for the remote shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
