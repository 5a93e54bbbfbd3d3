// File: cmd/idcap/tools.go
// Brief: Toolset and orchestrator construction shared by the capture commands.

package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mobiletriage/idcap/internal/capture"
	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/idevice"
	"github.com/mobiletriage/idcap/internal/logging"
)

// newToolsFn builds the Tools implementation the capture commands run
// against. Tests swap it out to exercise command flows without the external
// executables installed.
var newToolsFn = newTools

func newTools(cfg *config.Config, logger *zap.Logger) idevice.Tools {
	return idevice.NewToolset(cfg.ToolDir, cfg.UDID, cfg.SyslogArgv(), logger)
}

// probeToolsFn resolves and probes the toolset executables for doctor.
var probeToolsFn = probeTools

func probeTools(ctx context.Context, cfg *config.Config, logger *zap.Logger) []idevice.Probe {
	return idevice.NewToolset(cfg.ToolDir, cfg.UDID, nil, logger).ProbeAll(ctx)
}

// buildOrchestrator wires the logger, toolset, and capture orchestrator for
// one command invocation. The caller owns syncing the returned logger.
func buildOrchestrator(cmd *cobra.Command, cfg *config.Config) (*capture.Orchestrator, *zap.Logger, error) {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	orch, err := capture.New(capture.Options{
		Config:  cfg,
		Tools:   newToolsFn(cfg, logger),
		Logger:  logger,
		Console: cmd.OutOrStdout(),
	})
	if err != nil {
		return nil, nil, err
	}
	return orch, logger, nil
}
