package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigFileBackfillsUnchangedFlags(t *testing.T) {
	home := isolateHome(t)
	cfgDir := filepath.Join(home, ".config", "idcap")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	cfgFile := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("udid: 00008030-CONFIGFILE\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	target := filepath.Join(t.TempDir(), "rendered.yaml")
	if _, err := runRoot(t, "init", "--output", target); err != nil {
		t.Fatalf("execute init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read rendered config: %v", err)
	}
	if !strings.Contains(string(data), "udid: 00008030-CONFIGFILE") {
		t.Fatalf("expected udid from config file in rendered output, got:\n%s", data)
	}
}

func TestEnvBackfillsUnchangedFlags(t *testing.T) {
	isolateHome(t)
	t.Setenv("IDCAP_UDID", "00008030-FROMENV")

	target := filepath.Join(t.TempDir(), "rendered.yaml")
	if _, err := runRoot(t, "init", "--output", target); err != nil {
		t.Fatalf("execute init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read rendered config: %v", err)
	}
	if !strings.Contains(string(data), "udid: 00008030-FROMENV") {
		t.Fatalf("expected udid from environment in rendered output, got:\n%s", data)
	}
}

func TestFlagBeatsEnv(t *testing.T) {
	isolateHome(t)
	t.Setenv("IDCAP_UDID", "00008030-FROMENV")

	target := filepath.Join(t.TempDir(), "rendered.yaml")
	if _, err := runRoot(t, "init", "--output", target, "--udid", "00008030-FROMFLAG"); err != nil {
		t.Fatalf("execute init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read rendered config: %v", err)
	}
	if !strings.Contains(string(data), "udid: 00008030-FROMFLAG") {
		t.Fatalf("expected flag value to win over environment, got:\n%s", data)
	}
}

func TestRootRejectsInvalidColorMode(t *testing.T) {
	isolateHome(t)
	_, err := runRoot(t, "devices", "--color", "sometimes")
	if err == nil || !strings.Contains(err.Error(), "invalid --color") {
		t.Fatalf("expected color validation error, got %v", err)
	}
}

func TestRootRejectsInvalidLogLevel(t *testing.T) {
	isolateHome(t)
	_, err := runRoot(t, "devices", "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "unknown log level") {
		t.Fatalf("expected log level validation error, got %v", err)
	}
}
