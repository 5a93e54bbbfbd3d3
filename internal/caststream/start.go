package caststream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Start boots srv in the background and surfaces startup failures to the
// caller. Bind errors on the listen address show up almost immediately, so
// Start waits a short grace period before declaring the server healthy; a
// failure after that is logged and written to errOut but no longer aborts
// the capture it was mirroring.
func Start(ctx context.Context, srv *Server, label string, logger *zap.Logger, errOut io.Writer) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			if errOut != nil {
				fmt.Fprintf(errOut, "%s failed: %v\n", label, err)
			}
			return err
		}
	case <-time.After(250 * time.Millisecond):
		// Server is running; monitor for later failures.
		go func() {
			for err := range errCh {
				if err == nil {
					continue
				}
				logger.Error(fmt.Sprintf("%s exited", label), zap.Error(err))
				if errOut != nil {
					fmt.Fprintf(errOut, "%s exited: %v\n", label, err)
				}
			}
		}()
	}

	return nil
}
