package capture

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DefaultWindow is how long the snapshot samples the live syslog stream.
const DefaultWindow = 5 * time.Second

// SnapshotOptions configures one snapshot capture.
type SnapshotOptions struct {
	// Window bounds the syslog sampling step. Zero means DefaultWindow.
	Window time.Duration
}

// Snapshot gathers a full bundle into a fresh session directory: a fixed
// window of syslog, the device info dump, a diagnostics dump, and extracted
// crash reports. The steps run strictly in that order and every step is best
// effort: a failing tool leaves whatever partial output it produced and the
// sequence continues, so a finished snapshot always holds all four artifacts.
func (o *Orchestrator) Snapshot(ctx context.Context, opts SnapshotOptions) (*Result, error) {
	udid, err := o.checkDevice(ctx)
	if err != nil {
		return nil, err
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	start := o.now()
	dir, err := ClaimSessionDir(o.cfg.SnapshotRoot, start)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Operation:  OpSnapshot,
		DeviceUDID: udid,
		Path:       dir,
		StartedAt:  start,
	}

	o.stepf("sampling syslog for %s", window)
	if err := o.sampleSyslog(ctx, dir, window); err != nil {
		res.warn(o.logger, "syslog sample: %v", err)
	}
	res.Artifacts = append(res.Artifacts, SyslogFileName)

	o.stepf("dumping device info")
	info, err := o.tools.DeviceInfo(ctx)
	if err != nil {
		res.warn(o.logger, "device info: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DeviceInfoFileName), info, 0o644); err != nil {
		res.warn(o.logger, "write device info: %v", err)
	}
	res.Artifacts = append(res.Artifacts, DeviceInfoFileName)

	o.stepf("running diagnostics")
	diag, err := o.tools.Diagnostics(ctx)
	if err != nil {
		res.warn(o.logger, "diagnostics: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DiagnosticsFileName), diag, 0o644); err != nil {
		res.warn(o.logger, "write diagnostics: %v", err)
	}
	res.Artifacts = append(res.Artifacts, DiagnosticsFileName)

	o.stepf("extracting crash reports")
	crashDir := filepath.Join(dir, CrashReportsDirName)
	if err := os.Mkdir(crashDir, 0o755); err != nil {
		res.warn(o.logger, "crash reports dir: %v", err)
	} else if out, err := o.tools.ExtractCrashReports(ctx, crashDir); err != nil {
		res.warn(o.logger, "crash reports: %v", err)
		o.logger.Debug("crash report tool output", zap.ByteString("output", out))
	}
	res.Artifacts = append(res.Artifacts, CrashReportsDirName+"/")

	res.Duration = o.now().Sub(start)
	if err := writeSessionMeta(dir, res); err != nil {
		res.warn(o.logger, "session metadata: %v", err)
	}
	o.record(res)
	return res, nil
}

// sampleSyslog streams syslog into the session directory for at most window.
// The log file is created up front so the artifact exists even when the
// stream fails to start.
func (o *Orchestrator) sampleSyslog(ctx context.Context, dir string, window time.Duration) error {
	f, err := os.Create(filepath.Join(dir, SyslogFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	sampleCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	if err := o.tools.StreamSyslog(sampleCtx, f); !cleanStop(err) {
		return err
	}
	return nil
}

type sessionMeta struct {
	Operation  string    `json:"operation"`
	DeviceUDID string    `json:"deviceUdid,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
	Artifacts  []string  `json:"artifacts"`
	Warnings   []string  `json:"warnings,omitempty"`
}

func writeSessionMeta(dir string, res *Result) error {
	f, err := os.Create(filepath.Join(dir, SessionMetaFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(sessionMeta{
		Operation:  res.Operation,
		DeviceUDID: res.DeviceUDID,
		StartedAt:  res.StartedAt.UTC(),
		DurationMS: res.Duration.Milliseconds(),
		Artifacts:  res.Artifacts,
		Warnings:   res.Warnings,
	})
}
