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

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/NVIDIA/skiff/pkg/defaults"
)

// DefaultPort is the SSH port used when the target address carries none.
const DefaultPort = "22"

// Options configures an SSH connection to a deploy target.
type Options struct {
	// Host is the target address: "host", "host:port", or "user@host".
	// A user embedded in the address overrides User.
	Host string
	// User is the SSH login name. Defaults to $USER, then the current
	// OS user.
	User string
	// KeyPath is the private key file. When empty, ~/.ssh/id_ed25519 and
	// ~/.ssh/id_rsa are tried in that order.
	KeyPath string
	// KnownHostsPath is the host key database. Defaults to
	// ~/.ssh/known_hosts.
	KnownHostsPath string
	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool
	// ConnectTimeout bounds the TCP dial and SSH handshake. Defaults to
	// defaults.RemoteConnectTimeout.
	ConnectTimeout time.Duration
}

// Result captures one remote command execution.
type Result struct {
	User   string `json:"user" yaml:"user"`
	Host   string `json:"host" yaml:"host"`
	Cmd    string `json:"cmd" yaml:"cmd"`
	Stdout string `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Code   int    `json:"code" yaml:"code"`
}

// Client is an authenticated SSH connection to a deploy target. Each
// command runs in its own session on the shared connection.
type Client struct {
	conn *ssh.Client
	user string
	host string
}

// ParseTarget splits an optional "user@" prefix off a target address.
func ParseTarget(target string) (userName, host string) {
	if i := strings.Index(target, "@"); i >= 0 {
		return target[:i], target[i+1:]
	}
	return "", target
}

// NewClient dials the target and authenticates with the configured key.
func NewClient(opts Options) (*Client, error) {
	userName, host := ParseTarget(opts.Host)
	if host == "" {
		return nil, fmt.Errorf("remote host is required")
	}
	if userName == "" {
		userName = opts.User
	}
	if userName == "" {
		userName = os.Getenv("USER")
	}
	if userName == "" {
		u, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to determine ssh user: %w", err)
		}
		userName = u.Username
	}

	signer, err := loadSigner(opts.KeyPath)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := hostKeyCallback(opts)
	if err != nil {
		return nil, err
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaults.RemoteConnectTimeout
	}

	addr := ensurePort(host)
	cfg := &ssh.ClientConfig{
		User:            userName,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	conn, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s as %s: %w", addr, userName, err)
	}

	slog.Debug("ssh connection established",
		"host", addr,
		"user", userName,
	)

	return &Client{
		conn: conn,
		user: userName,
		host: host,
	}, nil
}

// Run executes cmd on the remote host and returns its output and exit
// code. A non-zero remote exit is reported through Result.Code, not the
// error: the error is reserved for transport and session failures.
func (c *Client) Run(ctx context.Context, cmd string) (Result, error) {
	result := Result{User: c.user, Host: c.host, Cmd: cmd}

	session, err := c.conn.NewSession()
	if err != nil {
		return result, fmt.Errorf("failed to create session on %s: %w", c.host, err)
	}
	defer func() { _ = session.Close() }()

	var bout, berr bytes.Buffer
	session.Stdout = &bout
	session.Stderr = &berr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		// Closing the session unblocks the goroutine. The buffers may
		// still be written to, so they are not read on this path.
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return result, ctx.Err()
	case err = <-done:
	}

	result.Stdout = bout.String()
	result.Stderr = berr.String()

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			// The command ran; the host-side failure is the caller's to
			// judge from Code.
			result.Code = exitErr.ExitStatus()
			err = nil
		} else {
			err = fmt.Errorf("failed running %q on %s: %w", cmd, c.host, err)
		}
	}

	return result, err
}

// Close tears down the SSH connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Host returns the target host the client is connected to.
func (c *Client) Host() string {
	return c.host
}

// User returns the login name the connection authenticated as.
func (c *Client) User() string {
	return c.user
}

func ensurePort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, DefaultPort)
}

func loadSigner(keyPath string) (ssh.Signer, error) {
	if keyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory for ssh key: %w", err)
		}
		for _, name := range []string{"id_ed25519", "id_rsa"} {
			candidate := filepath.Join(home, ".ssh", name)
			if _, statErr := os.Stat(candidate); statErr == nil {
				keyPath = candidate
				break
			}
		}
		if keyPath == "" {
			return nil, fmt.Errorf("no ssh key found under %s", filepath.Join(home, ".ssh"))
		}
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key %s: %w", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key %s: %w", keyPath, err)
	}
	return signer, nil
}

func hostKeyCallback(opts Options) (ssh.HostKeyCallback, error) {
	if opts.InsecureIgnoreHostKey {
		slog.Warn("ssh host key verification disabled", "host", opts.Host)
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicit opt-in
	}

	path := opts.KnownHostsPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory for known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts %s: %w", path, err)
	}
	return callback, nil
}
