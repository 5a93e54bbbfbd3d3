// File: cmd/idcap/install.go
// Brief: CLI command wiring and implementation for 'install'.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/installer"
	"github.com/mobiletriage/idcap/internal/ui"
)

func newInstallCommand(cfg *config.Config) *cobra.Command {
	var url string
	var sha string
	var force bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download and unpack the capture toolset into the tool directory",
		Long: "Install fetches a toolset release archive (.zip or .tar.gz), verifies it " +
			"when a checksum is given, and unpacks it into --tool-dir so idcap can run " +
			"the capture tools without touching the system PATH.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				return errors.New("--url is required (no default toolset mirror is configured)")
			}
			if cfg.ToolDir == "" {
				return errors.New("--tool-dir is required: where the toolset should land")
			}
			done := func(bool) {}
			if ui.IsTerminalWriter(cmd.OutOrStdout()) {
				done = ui.StartSpinner(cmd.OutOrStdout(), fmt.Sprintf("installing toolset from %s", url))
			}
			res, err := installer.Install(cmd.Context(), installer.Options{
				URL:    url,
				SHA256: sha,
				Dir:    cfg.ToolDir,
				Force:  force,
			})
			done(err == nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Installed %d files into %s\n", len(res.Files), res.Dir)
			fmt.Fprintf(out, "Persist the location with tool-dir: %s in your idcap config, then run 'idcap doctor' to verify.\n", res.Dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Toolset archive URL (.zip or .tar.gz)")
	cmd.Flags().StringVar(&sha, "sha256", "", "Expected SHA-256 of the archive (hex)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing toolset installation")
	return cmd
}
