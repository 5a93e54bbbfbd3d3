package capture

import (
	"context"
	"path/filepath"
)

// Info runs the device-info command once and writes its output to a single
// timestamped file under the info root. The simplest operation: no session
// directory, no background work.
func (o *Orchestrator) Info(ctx context.Context) (*Result, error) {
	udid, err := o.checkDevice(ctx)
	if err != nil {
		return nil, err
	}
	start := o.now()
	out, infoErr := o.tools.DeviceInfo(ctx)
	f, err := ClaimInfoFile(o.cfg.InfoRoot, InfoFilePrefix, ".txt", start)
	if err != nil {
		return nil, err
	}
	path := f.Name()
	res := &Result{
		Operation:  OpInfo,
		DeviceUDID: udid,
		Path:       path,
		Artifacts:  []string{filepath.Base(path)},
		StartedAt:  start,
	}
	if infoErr != nil {
		res.warn(o.logger, "device info: %v", infoErr)
	}
	if _, err := f.Write(out); err != nil {
		res.warn(o.logger, "write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		res.warn(o.logger, "close %s: %v", path, err)
	}
	res.Duration = o.now().Sub(start)
	o.record(res)
	return res, nil
}
