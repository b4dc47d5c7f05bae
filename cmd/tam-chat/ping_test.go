package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunPing_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	root := rootArgs{cfgPath: filepath.Join(t.TempDir(), "config.toml")}
	var out bytes.Buffer
	if err := runPing(context.Background(), root, []string{"-url", srv.URL}, &out); err != nil {
		t.Fatalf("runPing: %v", err)
	}
	if !strings.Contains(out.String(), "ok: "+srv.URL) {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunPing_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	root := rootArgs{cfgPath: filepath.Join(t.TempDir(), "config.toml")}
	if err := runPing(context.Background(), root, []string{"-url", srv.URL}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unhealthy server")
	}
}

func TestRunPing_ModelWithoutCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TAM_PROVIDER", "")
	root := rootArgs{cfgPath: filepath.Join(t.TempDir(), "config.toml")}
	if err := runPing(context.Background(), root, []string{"-model"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without model credentials")
	}
}
