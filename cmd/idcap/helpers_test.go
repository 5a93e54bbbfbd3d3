package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/idevice"
)

func TestMain(m *testing.M) {
	// Config paths are derived from HOME, which individual tests point at
	// temp directories. The homedir cache would leak the first value into
	// every later test.
	homedir.DisableCache = true
	os.Exit(m.Run())
}

// isolateHome pins config discovery to a fresh temp home so tests never read
// or write the developer's real idcap config.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("IDCAP_CONFIG", "")
	return home
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeTools satisfies idevice.Tools without any external executables.
type fakeTools struct {
	devices    []string
	listErr    error
	syslog     func(ctx context.Context, out io.Writer) error
	deviceInfo []byte
	infoErr    error
	diag       []byte
	diagErr    error
	crashOut   []byte
	crashErr   error
	crashFiles map[string]string
}

func (f *fakeTools) ListDevices(ctx context.Context) ([]string, error) {
	return f.devices, f.listErr
}

func (f *fakeTools) StreamSyslog(ctx context.Context, out io.Writer) error {
	if f.syslog != nil {
		return f.syslog(ctx, out)
	}
	return nil
}

func (f *fakeTools) DeviceInfo(ctx context.Context) ([]byte, error) {
	return f.deviceInfo, f.infoErr
}

func (f *fakeTools) Diagnostics(ctx context.Context) ([]byte, error) {
	return f.diag, f.diagErr
}

func (f *fakeTools) ExtractCrashReports(ctx context.Context, dir string) ([]byte, error) {
	for name, content := range f.crashFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	return f.crashOut, f.crashErr
}

func stubTools(t *testing.T, tools idevice.Tools) {
	t.Helper()
	orig := newToolsFn
	newToolsFn = func(*config.Config, *zap.Logger) idevice.Tools { return tools }
	t.Cleanup(func() { newToolsFn = orig })
}

func stubProbes(t *testing.T, probes []idevice.Probe) {
	t.Helper()
	orig := probeToolsFn
	probeToolsFn = func(context.Context, *config.Config, *zap.Logger) []idevice.Probe { return probes }
	t.Cleanup(func() { probeToolsFn = orig })
}
