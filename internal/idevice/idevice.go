// Package idevice shells out to the libimobiledevice command-line tools.
// idcap never speaks the device protocol itself: every capability here wraps
// one external executable and treats its output as opaque text. The Tools
// interface is what the capture orchestration consumes, so tests can swap in
// fakes without a device or an installed toolset.
package idevice

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// Executable names of the toolset. Resolved against the configured tool
// directory first, then PATH.
const (
	ListTool        = "idevice_id"
	SyslogTool      = "idevicesyslog"
	InfoTool        = "ideviceinfo"
	DiagnosticsTool = "idevicediagnostics"
	CrashReportTool = "idevicecrashreport"
)

// RequiredTools lists every executable idcap depends on.
var RequiredTools = []string{ListTool, SyslogTool, InfoTool, DiagnosticsTool, CrashReportTool}

// Tools is the capability surface for device capture operations.
type Tools interface {
	// ListDevices reports the UDIDs of attached devices. A pure read.
	ListDevices(ctx context.Context) ([]string, error)
	// StreamSyslog writes the live syslog stream to out until the process
	// exits or ctx is cancelled. Cancellation surfaces as ctx.Err so callers
	// can treat it as a clean stop.
	StreamSyslog(ctx context.Context, out io.Writer) error
	// DeviceInfo dumps the device property list. Partial output is returned
	// alongside the error when the command fails.
	DeviceInfo(ctx context.Context) ([]byte, error)
	// Diagnostics runs a full diagnostics dump, same partial-output contract.
	Diagnostics(ctx context.Context) ([]byte, error)
	// ExtractCrashReports copies crash logs from the device into dir and
	// returns the command's progress output.
	ExtractCrashReports(ctx context.Context, dir string) ([]byte, error)
}

// Toolset runs the real executables.
type Toolset struct {
	// Dir is searched for executables before PATH. Empty means PATH only.
	Dir string
	// UDID targets a specific device when several are attached.
	UDID string
	// SyslogArgs are appended verbatim to the syslog invocation.
	SyslogArgs []string

	logger *zap.Logger
}

func NewToolset(dir, udid string, syslogArgs []string, logger *zap.Logger) *Toolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolset{
		Dir:        dir,
		UDID:       udid,
		SyslogArgs: append([]string(nil), syslogArgs...),
		logger:     logger,
	}
}

// Resolve returns the invocable path for a tool name.
func (t *Toolset) Resolve(name string) (string, error) {
	exe := executableName(name)
	if t.Dir != "" {
		candidate := filepath.Join(t.Dir, exe)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return exec.LookPath(exe)
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func (t *Toolset) command(ctx context.Context, name string, args ...string) (*exec.Cmd, error) {
	path, err := t.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", name, err)
	}
	return exec.CommandContext(ctx, path, args...), nil
}

func (t *Toolset) udidArgs() []string {
	if t.UDID == "" {
		return nil
	}
	return []string{"-u", t.UDID}
}

func (t *Toolset) ListDevices(ctx context.Context) ([]string, error) {
	cmd, err := t.command(ctx, ListTool, "-l")
	if err != nil {
		return nil, err
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s -l: %w", ListTool, err)
	}
	return ParseDeviceList(string(out)), nil
}

// ParseDeviceList extracts device identifiers from the list tool's output,
// one trimmed non-empty line per device.
func ParseDeviceList(out string) []string {
	var devices []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		devices = append(devices, line)
	}
	return devices
}

func (t *Toolset) StreamSyslog(ctx context.Context, out io.Writer) error {
	args := append(t.udidArgs(), t.SyslogArgs...)
	cmd, err := t.command(ctx, SyslogTool, args...)
	if err != nil {
		return err
	}
	cmd.Stdout = out
	cmd.Stderr = io.Discard
	t.logger.Debug("starting syslog stream", zap.String("tool", SyslogTool), zap.Strings("args", args))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", SyslogTool, err)
	}
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		return fmt.Errorf("%s: %w", SyslogTool, waitErr)
	}
	return nil
}

func (t *Toolset) DeviceInfo(ctx context.Context) ([]byte, error) {
	return t.capture(ctx, InfoTool, t.udidArgs()...)
}

func (t *Toolset) Diagnostics(ctx context.Context) ([]byte, error) {
	args := append(t.udidArgs(), "diagnostics", "All")
	return t.capture(ctx, DiagnosticsTool, args...)
}

func (t *Toolset) ExtractCrashReports(ctx context.Context, dir string) ([]byte, error) {
	args := append(t.udidArgs(), "-e", dir)
	return t.capture(ctx, CrashReportTool, args...)
}

// capture runs a tool to completion and returns its combined output. The
// output is returned even when the command exits nonzero so callers can
// persist whatever was produced.
func (t *Toolset) capture(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd, err := t.command(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("running capture tool", zap.String("tool", name), zap.Strings("args", args))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}
