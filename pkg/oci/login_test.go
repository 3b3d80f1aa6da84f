/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogin_EmptyRegistry(t *testing.T) {
	_, err := Login(context.Background(), LoginOptions{Registry: ""})
	if err == nil {
		t.Error("Login() expected error for empty registry, got nil")
	}
}

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/" {
			t.Errorf("Unexpected request path %q, want /v2/", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	res, err := Login(context.Background(), LoginOptions{
		Registry:  host,
		PlainHTTP: true,
	})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}

	if res.Registry != host {
		t.Errorf("Registry = %q, want %q", res.Registry, host)
	}
	if res.Username != "anonymous" {
		t.Errorf("Username = %q, want %q", res.Username, "anonymous")
	}
}

func TestLogin_StripsProtocol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := Login(context.Background(), LoginOptions{
		Registry:  srv.URL, // http:// prefix should be stripped
		PlainHTTP: true,
	})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}

	want := strings.TrimPrefix(srv.URL, "http://")
	if res.Registry != want {
		t.Errorf("Registry = %q, want %q", res.Registry, want)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Basic realm="registry"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	_, err := Login(context.Background(), LoginOptions{
		Registry:  host,
		PlainHTTP: true,
	})
	if err == nil {
		t.Fatal("Login() expected error for unauthorized registry, got nil")
	}
	if !strings.Contains(err.Error(), "registry ping failed") {
		t.Errorf("Login() error = %q, want contains %q", err.Error(), "registry ping failed")
	}
}

func TestLogin_Unreachable(t *testing.T) {
	// Reserve a port, then close it so the connection is refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	_, err := Login(context.Background(), LoginOptions{
		Registry:  host,
		PlainHTTP: true,
	})
	if err == nil {
		t.Error("Login() expected error for unreachable registry, got nil")
	}
}
