// Package capture implements the orchestration behind idcap's capture
// commands: presence check, timestamped session locations, and the
// sequencing of the external tool invocations that produce each artifact
// set. All device I/O goes through the idevice.Tools interface; this package
// only decides what runs, where its output lands, and what gets reported.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/idevice"
)

// Operation names used in results, the session index, and metadata files.
const (
	OpLive     = "live"
	OpSnapshot = "snapshot"
	OpInfo     = "info"
)

// ErrNoDevice reports that the presence check found nothing to capture
// against. Tool failures and an empty device list both map here: the
// operator remedy is the same either way.
var ErrNoDevice = errors.New("no device detected")

// Options configures an Orchestrator.
type Options struct {
	Config *config.Config
	Tools  idevice.Tools
	Logger *zap.Logger
	// Console receives operator-facing progress output. Defaults to stdout.
	Console io.Writer
	// Now is a clock override for tests. Defaults to time.Now.
	Now func() time.Time
}

// Orchestrator runs capture operations. Each operation is a linear sequence
// with a single branch point: the presence check.
type Orchestrator struct {
	cfg     *config.Config
	tools   idevice.Tools
	logger  *zap.Logger
	console io.Writer
	now     func() time.Time
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, errors.New("capture: config is required")
	}
	if opts.Tools == nil {
		return nil, errors.New("capture: tools are required")
	}
	o := &Orchestrator{
		cfg:     opts.Config,
		tools:   opts.Tools,
		logger:  opts.Logger,
		console: opts.Console,
		now:     opts.Now,
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.console == nil {
		o.console = os.Stdout
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Result summarizes one finished capture operation.
type Result struct {
	Operation  string
	DeviceUDID string
	// Path is the session directory (live, snapshot) or the written file (info).
	Path      string
	Artifacts []string
	StartedAt time.Time
	Duration  time.Duration
	Warnings  []string
}

func (r *Result) warn(logger *zap.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	logger.Warn("capture step degraded", zap.String("operation", r.Operation), zap.String("detail", msg))
}

// checkDevice runs the presence check. An execution error from the list tool
// and an empty result collapse into ErrNoDevice; the underlying error stays
// at debug level because the operator-facing remedy does not depend on it.
func (o *Orchestrator) checkDevice(ctx context.Context) (string, error) {
	devices, err := o.tools.ListDevices(ctx)
	if err != nil {
		o.logger.Debug("device list failed", zap.Error(err))
		return "", ErrNoDevice
	}
	if len(devices) == 0 {
		return "", ErrNoDevice
	}
	if o.cfg.UDID != "" {
		if !slices.Contains(devices, o.cfg.UDID) {
			o.logger.Debug("requested device not attached", zap.String("udid", o.cfg.UDID), zap.Strings("attached", devices))
			return "", ErrNoDevice
		}
		return o.cfg.UDID, nil
	}
	return devices[0], nil
}

func (o *Orchestrator) stepf(format string, args ...any) {
	fmt.Fprintf(o.console, "• %s\n", fmt.Sprintf(format, args...))
}

// record appends the finished session to the sqlite index. Best effort: an
// index failure downgrades to a warning so the capture itself still counts.
// Runs on its own bounded context because the operation's context is usually
// already cancelled by the time a live session gets here.
func (o *Orchestrator) record(res *Result) {
	path := o.cfg.SessionDBPath()
	if path == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := OpenStore(path)
	if err != nil {
		res.warn(o.logger, "session index: %v", err)
		return
	}
	defer st.Close()
	if err := st.Record(ctx, res); err != nil {
		res.warn(o.logger, "session index: %v", err)
	}
}

// cleanStop reports whether err is the expected end of a bounded or
// operator-interrupted stream rather than a tool failure.
func cleanStop(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
