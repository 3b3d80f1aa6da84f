/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantUser string
		wantHost string
	}{
		{
			name:     "user and host",
			target:   "deploy@10.0.0.7",
			wantUser: "deploy",
			wantHost: "10.0.0.7",
		},
		{
			name:     "host only",
			target:   "10.0.0.7",
			wantUser: "",
			wantHost: "10.0.0.7",
		},
		{
			name:     "user host and port",
			target:   "deploy@10.0.0.7:2222",
			wantUser: "deploy",
			wantHost: "10.0.0.7:2222",
		},
		{
			name:     "hostname",
			target:   "staging.example.com",
			wantUser: "",
			wantHost: "staging.example.com",
		},
		{
			name:     "empty",
			target:   "",
			wantUser: "",
			wantHost: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, host := ParseTarget(tt.target)
			if user != tt.wantUser {
				t.Errorf("ParseTarget(%q) user = %q, want %q", tt.target, user, tt.wantUser)
			}
			if host != tt.wantHost {
				t.Errorf("ParseTarget(%q) host = %q, want %q", tt.target, host, tt.wantHost)
			}
		})
	}
}

func TestEnsurePort(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{
			name: "bare host",
			host: "10.0.0.7",
			want: "10.0.0.7:22",
		},
		{
			name: "host with port",
			host: "10.0.0.7:2222",
			want: "10.0.0.7:2222",
		},
		{
			name: "hostname",
			host: "staging.example.com",
			want: "staging.example.com:22",
		},
		{
			name: "ipv6",
			host: "::1",
			want: "[::1]:22",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ensurePort(tt.host); got != tt.want {
				t.Errorf("ensurePort(%q) = %q, want %q", tt.host, got, tt.want)
			}
		})
	}
}

func TestLoadSigner_MissingFile(t *testing.T) {
	_, err := loadSigner(filepath.Join(t.TempDir(), "no-such-key"))
	if err == nil {
		t.Error("loadSigner() expected error for missing key file, got nil")
	}
}

func TestLoadSigner_InvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}

	_, err := loadSigner(path)
	if err == nil {
		t.Error("loadSigner() expected error for invalid key data, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse ssh key") {
		t.Errorf("loadSigner() error = %q, want contains %q", err.Error(), "failed to parse ssh key")
	}
}

func TestLoadSigner_GeneratedKey(t *testing.T) {
	path := writeTestClientKey(t)
	signer, err := loadSigner(path)
	if err != nil {
		t.Fatalf("loadSigner() error = %v", err)
	}
	if signer.PublicKey().Type() != ssh.KeyAlgoED25519 {
		t.Errorf("PublicKey().Type() = %q, want %q", signer.PublicKey().Type(), ssh.KeyAlgoED25519)
	}
}

func TestNewClient_EmptyHost(t *testing.T) {
	_, err := NewClient(Options{Host: ""})
	if err == nil {
		t.Error("NewClient() expected error for empty host, got nil")
	}
}

func TestNewClient_MissingKnownHosts(t *testing.T) {
	_, err := NewClient(Options{
		Host:           "10.0.0.7",
		User:           "deploy",
		KeyPath:        writeTestClientKey(t),
		KnownHostsPath: filepath.Join(t.TempDir(), "no-such-known-hosts"),
	})
	if err == nil {
		t.Fatal("NewClient() expected error for missing known_hosts, got nil")
	}
	if !strings.Contains(err.Error(), "known_hosts") {
		t.Errorf("NewClient() error = %q, want contains %q", err.Error(), "known_hosts")
	}
}

func TestRun(t *testing.T) {
	addr := startSSHServer(t, func(cmd string, ch ssh.Channel) int {
		if cmd != "docker compose ps" {
			fmt.Fprintf(ch.Stderr(), "unexpected command %q\n", cmd)
			return 1
		}
		fmt.Fprintln(ch, "NAME    STATUS")
		fmt.Fprintln(ch, "web     running")
		return 0
	})

	c := dialTestClient(t, addr)

	result, err := c.Run(context.Background(), "docker compose ps")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Code != 0 {
		t.Errorf("Code = %d, want 0 (stderr: %s)", result.Code, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "web") {
		t.Errorf("Stdout = %q, want contains %q", result.Stdout, "web")
	}
	if result.User != "deploy" {
		t.Errorf("User = %q, want %q", result.User, "deploy")
	}
	if result.Cmd != "docker compose ps" {
		t.Errorf("Cmd = %q, want %q", result.Cmd, "docker compose ps")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	addr := startSSHServer(t, func(cmd string, ch ssh.Channel) int {
		fmt.Fprintln(ch.Stderr(), "no such service: web")
		return 3
	})

	c := dialTestClient(t, addr)

	result, err := c.Run(context.Background(), "docker compose up -d web")
	if err != nil {
		t.Fatalf("Run() error = %v, non-zero exit should not be a transport error", err)
	}

	if result.Code != 3 {
		t.Errorf("Code = %d, want 3", result.Code)
	}
	if !strings.Contains(result.Stderr, "no such service") {
		t.Errorf("Stderr = %q, want contains %q", result.Stderr, "no such service")
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	addr := startSSHServer(t, func(cmd string, ch ssh.Channel) int {
		// Block until the client tears the session down
		_, _ = io.Copy(io.Discard, ch)
		return 0
	})

	c := dialTestClient(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.Run(ctx, "sleep 600")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestClose_Nil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

// writeTestClientKey generates an ed25519 key pair and writes the private
// key in OpenSSH PEM format.
func writeTestClientKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}

	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}
	return path
}

// startSSHServer runs a minimal SSH server on a loopback port. Every exec
// request is handed to handle, whose return value becomes the remote exit
// status.
func startSSHServer(t *testing.T, handle func(cmd string, ch ssh.Channel) int) string {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		t.Fatalf("Failed to create host signer: %v", err)
	}

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(ssh.ConnMetadata, ssh.PublicKey) (*ssh.Permissions, error) {
			return &ssh.Permissions{}, nil
		},
	}
	config.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, acceptErr := ln.Accept()
			if acceptErr != nil {
				return
			}
			go serveTestConn(conn, config, handle)
		}
	}()

	return ln.Addr().String()
}

func serveTestConn(conn net.Conn, config *ssh.ServerConfig, handle func(cmd string, ch ssh.Channel) int) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		ch, chReqs, acceptErr := newCh.Accept()
		if acceptErr != nil {
			continue
		}
		go serveTestSession(ch, chReqs, handle)
	}
}

func serveTestSession(ch ssh.Channel, reqs <-chan *ssh.Request, handle func(cmd string, ch ssh.Channel) int) {
	defer ch.Close()
	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			_ = ssh.Unmarshal(req.Payload, &payload)
			_ = req.Reply(true, nil)

			code := handle(payload.Command, ch)

			status := struct{ Status uint32 }{uint32(code)} //nolint:gosec
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
			return
		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

func dialTestClient(t *testing.T, addr string) *Client {
	t.Helper()

	c, err := NewClient(Options{
		Host:                  addr,
		User:                  "deploy",
		KeyPath:               writeTestClientKey(t),
		InsecureIgnoreHostKey: true,
		ConnectTimeout:        5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if c.Host() != addr {
		t.Errorf("Host() = %q, want %q", c.Host(), addr)
	}
	if c.User() != "deploy" {
		t.Errorf("User() = %q, want %q", c.User(), "deploy")
	}
	return c
}
