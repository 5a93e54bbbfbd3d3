package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSnapshotSession(t *testing.T, root, name string, artifacts map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create session dir: %v", err)
	}
	for file, content := range artifacts {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatalf("write artifact %s: %v", file, err)
		}
	}
	return dir
}

func TestDiffResolvesBareSessionNames(t *testing.T) {
	isolateHome(t)
	snapRoot := t.TempDir()
	writeSnapshotSession(t, snapRoot, "20240301_100000", map[string]string{
		"iphone_device_info.txt": "ProductVersion: 17.0\n",
	})
	writeSnapshotSession(t, snapRoot, "20240301_110000", map[string]string{
		"iphone_device_info.txt": "ProductVersion: 17.1\n",
	})

	out, err := runRoot(t, "diff", "20240301_100000", "20240301_110000", "--snapshot-root", snapRoot)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "-ProductVersion: 17.0") || !strings.Contains(out, "+ProductVersion: 17.1") {
		t.Fatalf("expected unified diff lines, got: %q", out)
	}
}

func TestDiffIdenticalSessions(t *testing.T) {
	isolateHome(t)
	snapRoot := t.TempDir()
	a := writeSnapshotSession(t, snapRoot, "a", map[string]string{"iphone_syslog.log": "boot\n"})
	b := writeSnapshotSession(t, snapRoot, "b", map[string]string{"iphone_syslog.log": "boot\n"})

	out, err := runRoot(t, "diff", a, b, "--snapshot-root", snapRoot)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "no differences found") {
		t.Fatalf("expected no-differences report, got: %q", out)
	}
}

func TestDiffUnknownSessionErrors(t *testing.T) {
	isolateHome(t)
	snapRoot := t.TempDir()

	_, err := runRoot(t, "diff", "20240301_100000", "20240301_110000", "--snapshot-root", snapRoot)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected unknown session error, got %v", err)
	}
}
