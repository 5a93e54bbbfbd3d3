// File: cmd/idcap/snapshot.go
// Brief: CLI command wiring and implementation for 'snapshot'.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobiletriage/idcap/internal/capture"
	"github.com/mobiletriage/idcap/internal/config"
)

func newSnapshotCommand(cfg *config.Config) *cobra.Command {
	window := capture.DefaultWindow
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a full diagnostic bundle from the attached device",
		Long: "Snapshot samples a short window of syslog, then collects the device info " +
			"dump, a diagnostics dump, and the on-device crash reports into one " +
			"timestamped session directory. Failing steps degrade to warnings, so a " +
			"finished snapshot always holds all four artifacts.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, logger, err := buildOrchestrator(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			res, err := orch.Snapshot(cmd.Context(), capture.SnapshotOptions{Window: window})
			if errors.Is(err, capture.ErrNoDevice) {
				fmt.Fprintln(cmd.OutOrStdout(), noDeviceNotice)
				return nil
			}
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", window, "How long to sample the live syslog before collecting the other artifacts")
	return cmd
}
