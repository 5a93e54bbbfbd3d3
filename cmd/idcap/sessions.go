// File: cmd/idcap/sessions.go
// Brief: CLI command wiring and implementation for 'sessions'.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/mobiletriage/idcap/internal/capture"
	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/ui"
)

var opTitleCaser = cases.Title(language.Und, cases.NoLower)

func newSessionsCommand(cfg *config.Config) *cobra.Command {
	var limit int
	var format string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded capture sessions",
		Long:  "Sessions reads the local session index and lists past captures, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.SessionDBPath()
			if path == "" {
				return errors.New("session index disabled: --state-dir is empty")
			}
			st, err := capture.OpenStore(path)
			if err != nil {
				return err
			}
			defer st.Close()
			rows, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderSessions(cmd.OutOrStdout(), rows, format)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to list (0 lists everything)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, or yaml")
	return cmd
}

// sessionOutput is the machine-readable shape of one index row.
type sessionOutput struct {
	ID            string    `json:"id" yaml:"id"`
	Operation     string    `json:"operation" yaml:"operation"`
	DeviceUDID    string    `json:"deviceUdid,omitempty" yaml:"deviceUdid,omitempty"`
	Path          string    `json:"path" yaml:"path"`
	StartedAt     time.Time `json:"startedAt" yaml:"startedAt"`
	DurationMS    int64     `json:"durationMs" yaml:"durationMs"`
	ArtifactCount int       `json:"artifactCount" yaml:"artifactCount"`
	Warnings      []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func sessionOutputs(rows []capture.SessionRow) []sessionOutput {
	outputs := make([]sessionOutput, 0, len(rows))
	for _, row := range rows {
		outputs = append(outputs, sessionOutput{
			ID:            row.ID,
			Operation:     row.Operation,
			DeviceUDID:    row.DeviceUDID,
			Path:          row.Path,
			StartedAt:     row.StartedAt,
			DurationMS:    row.Duration.Milliseconds(),
			ArtifactCount: row.ArtifactCount,
			Warnings:      row.Warnings,
		})
	}
	return outputs
}

func renderSessions(out io.Writer, rows []capture.SessionRow, format string) error {
	switch format {
	case "table":
		renderSessionTable(out, rows)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sessionOutputs(rows))
	case "yaml":
		data, err := yaml.Marshal(sessionOutputs(rows))
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("invalid --format value %q (allowed: table, json, yaml)", format)
	}
}

func renderSessionTable(out io.Writer, rows []capture.SessionRow) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return
	}
	// Trim only the path column; the fixed columns take roughly 84 cells.
	pathWidth := 44
	if w, ok := ui.TerminalWidth(out); ok {
		if pw := w - 84; pw > 20 {
			pathWidth = pw
		} else {
			pathWidth = 20
		}
	}
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		udid := row.DeviceUDID
		if udid == "" {
			udid = "-"
		}
		table = append(table, []string{
			opTitleCaser.String(row.Operation),
			row.StartedAt.Local().Format("2006-01-02 15:04:05"),
			row.Duration.Round(time.Second).String(),
			strconv.Itoa(row.ArtifactCount),
			udid,
			ui.TrimToWidth(row.Path, pathWidth),
		})
	}
	ui.RenderTable(out, []string{"OPERATION", "STARTED", "DURATION", "ARTIFACTS", "UDID", "PATH"}, table)
}
