package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact names inside session directories. The prefix matches what
// operators already grep for in older capture archives.
const (
	SyslogFileName      = "iphone_syslog.log"
	DeviceInfoFileName  = "iphone_device_info.txt"
	DiagnosticsFileName = "iphone_diagnostics.txt"
	CrashReportsDirName = "crash_reports"
	SessionMetaFileName = "session.json"
	InfoFilePrefix      = "iphone_device_info"
)

const stampLayout = "20060102_150405"

// maxClaimAttempts bounds the collision-suffix search. A hundred captures
// started in the same second means something else is wrong.
const maxClaimAttempts = 100

// Stamp formats t in the session naming layout, e.g. 20240101_120000.
func Stamp(t time.Time) string {
	return t.Format(stampLayout)
}

// ClaimSessionDir creates a fresh directory named by the stamp of now under
// root, disambiguating same-second collisions with -2, -3, ... suffixes.
// The claim is atomic: an existing directory is never reused, so concurrent
// invocations each end up with their own path.
func ClaimSessionDir(root string, now time.Time) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create output root %s: %w", root, err)
	}
	stamp := Stamp(now)
	for attempt := 1; attempt <= maxClaimAttempts; attempt++ {
		dir := filepath.Join(root, claimName(stamp, attempt))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create session dir %s: %w", dir, err)
		}
	}
	return "", fmt.Errorf("no free session dir under %s for stamp %s", root, stamp)
}

// ClaimInfoFile creates a fresh timestamped file under root named
// <prefix>_<stamp><ext>, applying the same suffix policy as session
// directories. The caller owns closing the returned file.
func ClaimInfoFile(root, prefix, ext string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root %s: %w", root, err)
	}
	stamp := Stamp(now)
	for attempt := 1; attempt <= maxClaimAttempts; attempt++ {
		path := filepath.Join(root, fmt.Sprintf("%s_%s%s", prefix, claimName(stamp, attempt), ext))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("no free %s file under %s for stamp %s", prefix, root, stamp)
}

func claimName(stamp string, attempt int) string {
	if attempt <= 1 {
		return stamp
	}
	return fmt.Sprintf("%s-%d", stamp, attempt)
}
