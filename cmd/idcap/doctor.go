// File: cmd/idcap/doctor.go
// Brief: CLI command wiring and implementation for 'doctor'.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/logging"
	"github.com/mobiletriage/idcap/internal/ui"
)

func newDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the capture toolset is installed and runnable",
		Long: "Doctor resolves every executable idcap depends on and probes its version. " +
			"A tool that resolves but fails the probe is reported as an error; a tool " +
			"that cannot be found at all fails the check.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			probes := probeToolsFn(cmd.Context(), cfg, logger)
			rows := make([][]string, 0, len(probes))
			missing, errored := 0, 0
			for _, p := range probes {
				status := "ok"
				switch {
				case p.Missing():
					status = "missing"
					missing++
				case p.Err != nil:
					status = "error"
					errored++
				}
				version := p.Version
				if version == "" {
					version = "-"
				}
				path := p.Path
				if path == "" {
					path = "-"
				}
				rows = append(rows, []string{p.Name, status, version, path})
			}
			out := cmd.OutOrStdout()
			ui.RenderTable(out, []string{"TOOL", "STATUS", "VERSION", "PATH"}, rows)
			switch {
			case missing > 0:
				fmt.Fprintln(out, color.RedString("%d of %d tools missing.", missing, len(probes)))
				fmt.Fprintln(out, "Run 'idcap install' to fetch the toolset, or point --tool-dir at an existing installation.")
				return fmt.Errorf("%d capture tools missing", missing)
			case errored > 0:
				fmt.Fprintln(out, color.YellowString("%d of %d tools resolved but failed their version probe.", errored, len(probes)))
			default:
				fmt.Fprintln(out, color.GreenString("All %d tools available.", len(probes)))
			}
			return nil
		},
	}
	return cmd
}
