// File: cmd/idcap/init.go
// Brief: CLI command wiring and implementation for 'init'.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mobiletriage/idcap/internal/config"
)

func newInitCommand(cfg *config.Config) *cobra.Command {
	var force bool
	var output string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter idcap config file",
		Long: "Init writes a starter config file seeded with the settings resolved for " +
			"this invocation. Without --output it lands in the first user config " +
			"directory idcap searches.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := strings.TrimSpace(output)
			if cfgPath == "" {
				dirs := configSearchDirs()
				if len(dirs) == 0 {
					return errors.New("no user config directory available (set HOME or pass --output)")
				}
				cfgPath = filepath.Join(dirs[0], "config.yaml")
			} else {
				expanded, err := homedir.Expand(cfgPath)
				if err != nil {
					return fmt.Errorf("expand --output %q: %w", cfgPath, err)
				}
				cfgPath = expanded
			}
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("%s already exists (rerun with --force to overwrite)", cfgPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			payload, err := renderStarterConfig(cfg)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := os.WriteFile(cfgPath, payload, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", cfgPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().StringVar(&output, "output", "", "Write the config to this path instead of the user config dir")
	return cmd
}

func renderStarterConfig(cfg *config.Config) ([]byte, error) {
	settings := map[string]string{
		"live-root":     cfg.LiveRoot,
		"snapshot-root": cfg.SnapshotRoot,
		"info-root":     cfg.InfoRoot,
		"tool-dir":      cfg.ToolDir,
		"state-dir":     cfg.StateDir,
		"udid":          cfg.UDID,
		"syslog-args":   cfg.SyslogArgs,
		"log-level":     cfg.LogLevel,
		"color":         cfg.Color,
	}
	payload, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("render config yaml: %w", err)
	}
	header := []byte("# idcap configuration\n# Values here seed every command; flags and IDCAP_* environment variables win.\n")
	payload = append(header, payload...)
	if len(payload) > 0 && payload[len(payload)-1] != '\n' {
		payload = append(payload, '\n')
	}
	return payload, nil
}
