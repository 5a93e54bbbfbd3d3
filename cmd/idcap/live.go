// File: cmd/idcap/live.go
// Brief: CLI command wiring and implementation for 'live'.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mobiletriage/idcap/internal/capture"
	"github.com/mobiletriage/idcap/internal/caststream"
	"github.com/mobiletriage/idcap/internal/config"
)

func newLiveCommand(cfg *config.Config) *cobra.Command {
	var echo bool
	var wsListen string
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Stream the device syslog into a timestamped session directory",
		Long: "Live streams the device syslog to disk until interrupted. With --echo the " +
			"stream is mirrored to the console as it arrives, and --ws-listen serves it " +
			"to WebSocket clients for remote follow-along.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, logger, err := buildOrchestrator(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts := capture.LiveOptions{Echo: echo}
			if addr := strings.TrimSpace(wsListen); addr != "" {
				srv := caststream.New(addr, logger)
				label := fmt.Sprintf("%s websocket stream", cmd.CommandPath())
				if err := caststream.Start(cmd.Context(), srv, label, logger, cmd.ErrOrStderr()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on %s\n", label, addr)
				opts.Observer = srv
			}

			res, err := orch.Live(cmd.Context(), opts)
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
	cmd.Flags().BoolVar(&echo, "echo", false, "Mirror the captured stream to the console")
	cmd.Flags().StringVar(&wsListen, "ws-listen", "", "Serve the live stream to WebSocket clients on this address (e.g. :8700)")
	return cmd
}
