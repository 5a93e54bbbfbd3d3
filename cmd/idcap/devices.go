// File: cmd/idcap/devices.go
// Brief: CLI command wiring and implementation for 'devices'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/logging"
	"github.com/mobiletriage/idcap/internal/ui"
)

func newDevicesCommand(cfg *config.Config) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List attached devices",
		Long: "Devices lists the UDIDs of every attached device the toolset can see. A " +
			"failing list tool is reported the same way as an empty cable: no device.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			devices, err := newToolsFn(cfg, logger).ListDevices(cmd.Context())
			if err != nil {
				logger.Debug("device list failed", zap.Error(err))
				devices = nil
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), noDeviceNotice)
				return nil
			}
			if quiet {
				for _, udid := range devices {
					fmt.Fprintln(cmd.OutOrStdout(), udid)
				}
				return nil
			}
			rows := make([][]string, 0, len(devices))
			for _, udid := range devices {
				state := "attached"
				if cfg.UDID != "" && udid == cfg.UDID {
					state = "pinned"
				}
				rows = append(rows, []string{udid, state})
			}
			ui.RenderTable(cmd.OutOrStdout(), []string{"UDID", "STATE"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print UDIDs only, one per line")
	return cmd
}
