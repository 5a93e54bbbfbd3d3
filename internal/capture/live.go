package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// LineObserver receives each complete line captured during a live session.
// Observers must not block: slow consumers are their own problem to solve
// (the ws mirror drops laggards rather than stalling the stream).
type LineObserver interface {
	ObserveLine(line string)
}

// LiveOptions configures one live streaming session.
type LiveOptions struct {
	// Echo mirrors captured output to the operator console as it arrives.
	Echo bool
	// Observer, when set, is fed each captured line (used by the ws mirror).
	Observer LineObserver
}

// Live streams the device syslog into a fresh session directory until ctx is
// cancelled by the operator or the stream ends on its own. The plain variant
// writes to the log file only; Echo tees the stream to the console.
func (o *Orchestrator) Live(ctx context.Context, opts LiveOptions) (*Result, error) {
	udid, err := o.checkDevice(ctx)
	if err != nil {
		return nil, err
	}
	start := o.now()
	dir, err := ClaimSessionDir(o.cfg.LiveRoot, start)
	if err != nil {
		return nil, err
	}
	logPath := filepath.Join(dir, SyslogFileName)
	f, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", logPath, err)
	}
	defer f.Close()

	writers := []io.Writer{f}
	if opts.Echo {
		writers = append(writers, o.console)
	}
	var lw *lineWriter
	if opts.Observer != nil {
		lw = newLineWriter(opts.Observer)
		writers = append(writers, lw)
	}

	res := &Result{
		Operation:  OpLive,
		DeviceUDID: udid,
		Path:       dir,
		Artifacts:  []string{SyslogFileName},
		StartedAt:  start,
	}
	o.stepf("streaming syslog to %s (interrupt to stop)", logPath)
	streamErr := o.tools.StreamSyslog(ctx, io.MultiWriter(writers...))
	if lw != nil {
		lw.Flush()
	}
	res.Duration = o.now().Sub(start)
	if !cleanStop(streamErr) {
		res.warn(o.logger, "syslog stream: %v", streamErr)
	}
	o.record(res)
	return res, nil
}

// lineWriter splits a byte stream into lines for an observer, buffering the
// trailing partial line between writes.
type lineWriter struct {
	observer LineObserver

	mu  sync.Mutex
	buf bytes.Buffer
}

func newLineWriter(observer LineObserver) *lineWriter {
	return &lineWriter{observer: observer}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimRight(w.buf.Next(idx+1), "\r\n"))
		w.observer.ObserveLine(line)
	}
	return len(p), nil
}

// Flush delivers any buffered partial line. Called once when the stream ends.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return
	}
	line := string(bytes.TrimRight(w.buf.Bytes(), "\r\n"))
	w.buf.Reset()
	if line != "" {
		w.observer.ObserveLine(line)
	}
}
