// Package config defines the flag plumbing and runtime settings shared by
// idcap's commands, translating Cobra/Viper flag values into a strongly typed
// struct that the capture orchestration consumes. The struct is built once in
// main and passed by reference; nothing in here is ambient process state.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	shellwords "github.com/mattn/go-shellwords"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
)

// Config holds the capture output roots, the toolset location, and operator
// preferences for one idcap invocation.
type Config struct {
	LiveRoot     string
	SnapshotRoot string
	InfoRoot     string
	ToolDir      string
	StateDir     string
	UDID         string
	SyslogArgs   string
	LogLevel     string
	Color        string

	syslogArgv []string
}

// Default returns the settings used when nothing is overridden by flags,
// environment, or the config file.
func Default() *Config {
	return &Config{
		LiveRoot:     "~/idcap/live",
		SnapshotRoot: "~/idcap/snapshots",
		InfoRoot:     "~/idcap/info",
		StateDir:     "~/.idcap",
		LogLevel:     "info",
		Color:        "auto",
	}
}

// BindFlags registers the shared flags on fs and returns their names so the
// caller can wire environment and config-file overrides.
func (c *Config) BindFlags(fs *pflag.FlagSet) []string {
	fs.StringVar(&c.LiveRoot, "live-root", c.LiveRoot, "Directory receiving live syslog session directories")
	fs.StringVar(&c.SnapshotRoot, "snapshot-root", c.SnapshotRoot, "Directory receiving snapshot session directories")
	fs.StringVar(&c.InfoRoot, "info-root", c.InfoRoot, "Directory receiving device info dumps")
	fs.StringVar(&c.ToolDir, "tool-dir", c.ToolDir, "Directory holding the libimobiledevice executables (searched before PATH)")
	fs.StringVar(&c.StateDir, "state-dir", c.StateDir, "Directory for idcap state such as the session index")
	fs.StringVarP(&c.UDID, "udid", "u", c.UDID, "Target a specific device by UDID")
	fs.StringVar(&c.SyslogArgs, "syslog-args", c.SyslogArgs, "Extra arguments appended to the syslog tool invocation (shell quoting)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level for idcap output (debug, info, warn, error)")
	fs.StringVar(&c.Color, "color", c.Color, "Colorize output: auto, always, or never")
	return []string{
		"live-root", "snapshot-root", "info-root", "tool-dir", "state-dir",
		"udid", "syslog-args", "log-level", "color",
	}
}

// Normalize expands home-relative paths and parses the raw syslog argument
// string. Called once after flag and environment resolution.
func (c *Config) Normalize() error {
	for _, p := range []*string{&c.LiveRoot, &c.SnapshotRoot, &c.InfoRoot, &c.ToolDir, &c.StateDir} {
		if strings.TrimSpace(*p) == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand path %q: %w", *p, err)
		}
		*p = filepath.Clean(expanded)
	}
	c.syslogArgv = nil
	if strings.TrimSpace(c.SyslogArgs) != "" {
		argv, err := shellwords.Parse(c.SyslogArgs)
		if err != nil {
			return fmt.Errorf("parse --syslog-args %q: %w", c.SyslogArgs, err)
		}
		c.syslogArgv = argv
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid --color value %q (allowed: auto, always, never)", c.Color)
	}
	roots := []struct {
		flag  string
		value string
	}{
		{"live-root", c.LiveRoot},
		{"snapshot-root", c.SnapshotRoot},
		{"info-root", c.InfoRoot},
	}
	for _, root := range roots {
		if strings.TrimSpace(root.value) == "" {
			return fmt.Errorf("--%s must not be empty", root.flag)
		}
	}
	return nil
}

// ApplyColor translates the color mode onto the global fatih/color switch.
// "auto" keeps the library's own TTY detection.
func (c *Config) ApplyColor() {
	switch c.Color {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
}

// SyslogArgv returns a copy of the parsed extra syslog arguments.
func (c *Config) SyslogArgv() []string {
	return append([]string(nil), c.syslogArgv...)
}

// SessionDBPath returns the sqlite session index location, or "" when no
// state directory is configured (which disables the index).
func (c *Config) SessionDBPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return ""
	}
	return filepath.Join(c.StateDir, "sessions.db")
}
