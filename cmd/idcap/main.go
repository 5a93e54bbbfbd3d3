// main.go bootstraps idcap: it builds the root Cobra command, wires profiling, and executes with signal-aware contexts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mobiletriage/idcap/internal/config"
	"github.com/mobiletriage/idcap/internal/logging"
	"github.com/mobiletriage/idcap/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stopProfile := setupProfiling()
	defer stopProfile()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Default()
	var configPath string
	cmd := &cobra.Command{
		Use:   "idcap",
		Short: "Capture logs and diagnostics from attached iOS devices",
		Long: "idcap orchestrates the libimobiledevice command-line tools to capture live " +
			"syslog streams, diagnostic snapshots, and device metadata into timestamped " +
			"directories. It never speaks to the device itself: install the toolset with " +
			"'idcap install', check it with 'idcap doctor', then capture.",
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Normalize(); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
				return err
			}
			cfg.ApplyColor()
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an idcap config file (default: config.yaml in the user config dir)")
	cfg.BindFlags(cmd.PersistentFlags())

	liveCmd := newLiveCommand(cfg)
	snapshotCmd := newSnapshotCommand(cfg)
	infoCmd := newInfoCommand(cfg)
	devicesCmd := newDevicesCommand(cfg)
	sessionsCmd := newSessionsCommand(cfg)
	diffCmd := newDiffCommand(cfg)
	doctorCmd := newDoctorCommand(cfg)
	installCmd := newInstallCommand(cfg)
	initCmd := newInitCommand(cfg)
	cmd.AddCommand(
		liveCmd,
		snapshotCmd,
		infoCmd,
		devicesCmd,
		sessionsCmd,
		diffCmd,
		doctorCmd,
		installCmd,
		initCmd,
		newVersionCommand(),
	)
	cmd.Example = `  # Follow the device syslog until interrupted, mirroring it to the console
  idcap live --echo

  # Grab a snapshot bundle with a ten second syslog window
  idcap snapshot --window 10s

  # Verify the toolset installation
  idcap doctor`
	bindViper(&configPath, cmd, liveCmd, snapshotCmd, infoCmd, devicesCmd, sessionsCmd, diffCmd, doctorCmd, installCmd, initCmd)
	return cmd
}

func bindViper(configPath *string, commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("IDCAP")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		configFile := ""
		if configPath != nil {
			configFile = strings.TrimSpace(*configPath)
		}
		if configFile == "" {
			configFile = os.Getenv("IDCAP_CONFIG")
		}
		configureConfigFile(v, configFile)
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
			if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		if err := readConfigFile(v, configFile != ""); err != nil {
			cobra.CheckErr(err)
		}
		for _, cmd := range commands {
			flagSets := []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()}
			for _, fs := range flagSets {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Changed {
						return
					}
					if !v.IsSet(f.Name) {
						return
					}
					val := fmt.Sprintf("%v", v.Get(f.Name))
					if val != "" {
						_ = f.Value.Set(val)
					}
				})
			}
		}
	})
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	switch {
	case errors.Is(err, exec.ErrNotFound):
		message = fmt.Sprintf("%s\nHint: a capture tool is missing. Run 'idcap doctor' to see which, or 'idcap install' to fetch the toolset.", err)
	case errors.Is(err, context.DeadlineExceeded):
		message = fmt.Sprintf("%s\nHint: the device stopped responding. Reseat the USB connection and retry.", err)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	added := make(map[string]struct{})
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := added[path]; ok {
			return
		}
		added[path] = struct{}{}
		dirs = append(dirs, path)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "idcap"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		add(filepath.Join(home, ".config", "idcap"))
		add(filepath.Join(home, ".idcap"))
	}
	return dirs
}

func setupProfiling() func() {
	mode := strings.ToLower(os.Getenv("IDCAP_PROFILE"))
	ts := time.Now().UTC().Format("20060102-150405")
	switch mode {
	case "cpu":
		path := fmt.Sprintf("idcap-cpu-%s.pprof", ts)
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to create CPU profile %s: %v\n", path, err)
			return func() {}
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to start CPU profile: %v\n", err)
			f.Close()
			return func() {}
		}
		fmt.Fprintf(os.Stderr, "IDCAP_PROFILE=cpu: writing CPU profile to %s\n", path)
		return func() {
			pprof.StopCPUProfile()
			f.Close()
		}
	case "heap":
		path := fmt.Sprintf("idcap-heap-%s.pprof", ts)
		return func() {
			f, err := os.Create(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warn: unable to create heap profile %s: %v\n", path, err)
				return
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "warn: unable to write heap profile: %v\n", err)
				return
			}
			fmt.Fprintf(os.Stderr, "IDCAP_PROFILE=heap: wrote heap profile to %s\n", path)
		}
	default:
		return func() {}
	}
}
