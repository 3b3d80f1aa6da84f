/*
Copyright © 2025 NVIDIA Corporation

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package step

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/skiff/pkg/pipeline"
	"github.com/NVIDIA/skiff/pkg/remote"
)

// remoteSession is the slice of remote.Client the remote steps need.
// Narrowed to an interface so tests can run without an SSH server.
type remoteSession interface {
	Run(ctx context.Context, cmd string) (remote.Result, error)
	Copy(ctx context.Context, localPath, remoteDir string) error
	Close() error
}

// dialRemote is swapped in tests.
var dialRemote = func(opts remote.Options) (remoteSession, error) {
	return remote.NewClient(opts)
}

// Environment fallbacks for SSH connection settings, so a pipeline can
// configure the transport once instead of per stage.
const (
	envSSHUser         = "SKIFF_SSH_USER"
	envSSHKey          = "SKIFF_SSH_KEY"
	envKnownHosts      = "SKIFF_KNOWN_HOSTS"
	envInsecureHostKey = "SKIFF_INSECURE_HOST_KEY"
)

// remoteDial builds the SSH connection from the stage parameters. The
// host falls back to the binding DEPLOY_HOST variable; the remaining
// settings fall back to the SKIFF_SSH_* environment variables.
func remoteDial(sc *Context) (remoteSession, error) {
	host := sc.Param("host")
	if host == "" {
		host = sc.EnvOr(pipeline.EnvDeployHost, "")
	}
	if host == "" {
		return nil, fmt.Errorf("step parameter %q is required", "host")
	}

	insecure := sc.BoolParam("insecure-host-key")
	if !insecure {
		insecure = sc.EnvOr(envInsecureHostKey, "") == "true"
	}

	return dialRemote(remote.Options{
		Host:                  host,
		User:                  sc.ParamOr("ssh-user", sc.EnvOr(envSSHUser, "")),
		KeyPath:               sc.ParamOr("ssh-key", sc.EnvOr(envSSHKey, "")),
		KnownHostsPath:        sc.ParamOr("known-hosts", sc.EnvOr(envKnownHosts, "")),
		InsecureIgnoreHostKey: insecure,
	})
}

// remoteCopyStep uploads workspace files to the deploy host.
type remoteCopyStep struct{}

func (remoteCopyStep) Run(ctx context.Context, sc *Context) error {
	files, err := sc.RequireParam("files")
	if err != nil {
		return err
	}
	remoteDir := sc.ParamOr("remote-dir", ".")

	client, err := remoteDial(sc)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	for _, f := range strings.Fields(files) {
		local := f
		if !filepath.IsAbs(local) {
			local = filepath.Join(sc.Dir, local)
		}
		if err := client.Copy(ctx, local, remoteDir); err != nil {
			return err
		}
		fmt.Fprintf(sc.out(), "copied %s -> %s\n", filepath.Base(local), remoteDir)
	}
	return nil
}

// remoteExecStep runs one command on the deploy host and propagates its
// exit code as the stage outcome.
type remoteExecStep struct{}

func (remoteExecStep) Run(ctx context.Context, sc *Context) error {
	command, err := sc.RequireParam("command")
	if err != nil {
		return err
	}

	client, err := remoteDial(sc)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return runRemote(ctx, sc, client, command)
}

// runRemote executes one remote command, forwards its output, and maps a
// non-zero remote exit to an *ExitError.
func runRemote(ctx context.Context, sc *Context, client remoteSession, command string) error {
	res, err := client.Run(ctx, command)
	if err != nil {
		return err
	}

	if res.Stdout != "" {
		fmt.Fprint(sc.out(), res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(sc.errOut(), res.Stderr)
	}

	if res.Code != 0 {
		return &ExitError{Cmd: fmt.Sprintf("%s on %s", command, res.Host), Code: res.Code}
	}

	slog.Debug("remote command succeeded", "host", res.Host, "cmd", command)
	return nil
}

// composeDeployStep is the composite deploy stage: copy the compose and
// env files to the deploy host, then bring the stack up there.
type composeDeployStep struct{}

func (composeDeployStep) Run(ctx context.Context, sc *Context) error {
	composeFile := sc.Param("compose-file")
	if composeFile == "" {
		composeFile = sc.EnvOr(pipeline.EnvComposeFile, "")
	}
	if composeFile == "" {
		return fmt.Errorf("step parameter %q is required", "compose-file")
	}

	envFile := sc.Param("env-file")
	if envFile == "" {
		envFile = sc.EnvOr(pipeline.EnvEnvFile, "")
	}

	remoteDir := sc.ParamOr("remote-dir", ".")

	client, err := remoteDial(sc)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	uploads := []string{composeFile}
	if envFile != "" {
		uploads = append(uploads, envFile)
	}
	for _, f := range uploads {
		local := f
		if !filepath.IsAbs(local) {
			local = filepath.Join(sc.Dir, local)
		}
		if err := client.Copy(ctx, local, remoteDir); err != nil {
			return err
		}
	}

	command := composeUpCommand(remoteDir, filepath.Base(composeFile), envFileBase(envFile))
	slog.Info("deploying compose stack", "cmd", command)

	return runRemote(ctx, sc, client, command)
}

// composeUpCommand renders the remote compose invocation. Paths are
// quoted for the remote shell; the files were just copied into remoteDir.
func composeUpCommand(remoteDir, composeFile, envFile string) string {
	var b strings.Builder
	b.WriteString("cd " + remote.ShellQuote(remoteDir))
	b.WriteString(" && docker compose -f " + remote.ShellQuote(composeFile))
	if envFile != "" {
		b.WriteString(" --env-file " + remote.ShellQuote(envFile))
	}
	b.WriteString(" up -d --remove-orphans")
	return b.String()
}

func envFileBase(envFile string) string {
	if envFile == "" {
		return ""
	}
	return filepath.Base(envFile)
}
