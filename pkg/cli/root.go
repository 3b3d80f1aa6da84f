/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/skiff/pkg/logging"
)

const (
	name           = "skiff"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd assembles the CLI: the delivery pipeline commands plus the
// host and cluster verification commands.
func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "CI delivery pipeline runner",
		Version:               version,
		EnableShellCompletion: true,
		Description: fmt.Sprintf(`skiff - CI delivery pipeline runner

Version: %s
Commit:  %s
Built:   %s

Runs the build-push-deploy pipeline a CI job would: log in to the
registry, build and push the image, deploy it to the target host with
compose, and always clean the run workspace.`, version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			initLogger(cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCmd(),
			lintCmd(),
			preflightCmd(),
			verifyCmd(),
			pushCmd(),
		},
	}
}

// Execute runs the CLI and exits the process with the pipeline exit
// code contract: 0 success, 1 failure, 2 canceled.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		var xerr *exitError
		if errors.As(err, &xerr) {
			if xerr.message != "" {
				fmt.Fprintln(os.Stderr, xerr.message)
			}
			os.Exit(xerr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, context.Canceled) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// initLogger configures slog before any command executes so --log-level
// takes effect.
func initLogger(level string) {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
}

// exitError carries a process exit code through the command chain.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string {
	return e.message
}
