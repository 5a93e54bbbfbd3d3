// File: cmd/idcap/info.go
// Brief: CLI command wiring and implementation for 'info'.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobiletriage/idcap/internal/capture"
	"github.com/mobiletriage/idcap/internal/config"
)

func newInfoCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Dump the device property list into a timestamped file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, logger, err := buildOrchestrator(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			res, err := orch.Info(cmd.Context())
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
	return cmd
}
