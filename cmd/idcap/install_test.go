package main

import (
	"archive/zip"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeToolsetZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestInstallUnpacksArchiveIntoToolDir(t *testing.T) {
	isolateHome(t)
	payload := makeToolsetZip(t, map[string]string{
		"idevice_id":    "#!/bin/sh\n",
		"idevicesyslog": "#!/bin/sh\n",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	toolDir := filepath.Join(t.TempDir(), "tools")

	out, err := runRoot(t, "install", "--url", srv.URL+"/toolset.zip", "--tool-dir", toolDir)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Installed 2 files into "+toolDir) {
		t.Fatalf("expected install summary, got: %q", out)
	}
	if !strings.Contains(out, "idcap doctor") {
		t.Fatalf("expected doctor hint, got: %q", out)
	}
	if _, err := os.Stat(filepath.Join(toolDir, "idevice_id")); err != nil {
		t.Fatalf("expected extracted tool: %v", err)
	}
}

func TestInstallRequiresURL(t *testing.T) {
	isolateHome(t)

	_, err := runRoot(t, "install", "--tool-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "--url is required") {
		t.Fatalf("expected url requirement error, got %v", err)
	}
}

func TestInstallRequiresToolDir(t *testing.T) {
	isolateHome(t)

	_, err := runRoot(t, "install", "--url", "https://example.com/toolset.zip")
	if err == nil || !strings.Contains(err.Error(), "--tool-dir is required") {
		t.Fatalf("expected tool dir requirement error, got %v", err)
	}
}
