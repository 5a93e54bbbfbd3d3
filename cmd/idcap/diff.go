// File: cmd/idcap/diff.go
// Brief: CLI command wiring and implementation for 'diff'.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mobiletriage/idcap/internal/capture"
	"github.com/mobiletriage/idcap/internal/config"
)

func newDiffCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff SESSION_A SESSION_B",
		Short: "Compare the text artifacts of two capture sessions",
		Long: "Diff compares the text artifacts of two session directories and prints a " +
			"unified diff per artifact. Sessions may be given as paths or as bare " +
			"session names, which are resolved under the snapshot root.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirA, err := resolveSessionDir(cfg, args[0])
			if err != nil {
				return err
			}
			dirB, err := resolveSessionDir(cfg, args[1])
			if err != nil {
				return err
			}
			report, err := capture.DiffSessions(dirA, dirB)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		},
	}
	return cmd
}

// resolveSessionDir accepts a path to a session directory or a bare session
// name such as 20240101_120000, looked up under the snapshot root.
func resolveSessionDir(cfg *config.Config, arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg, nil
	}
	if !strings.ContainsRune(arg, os.PathSeparator) {
		candidate := filepath.Join(cfg.SnapshotRoot, arg)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("session %q not found (looked under %s)", arg, cfg.SnapshotRoot)
}
