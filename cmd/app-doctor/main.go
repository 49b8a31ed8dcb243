// App Doctor - best-effort remediation tool for desktop applications.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sysoptim/app-doctor/pkg/exporters/console"
	promexporter "github.com/sysoptim/app-doctor/pkg/exporters/prometheus"
	"github.com/sysoptim/app-doctor/pkg/fixers"
	"github.com/sysoptim/app-doctor/pkg/logger"
	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/server"
	"github.com/sysoptim/app-doctor/pkg/system"
	"github.com/sysoptim/app-doctor/pkg/types"
	"github.com/sysoptim/app-doctor/pkg/util"
	"github.com/sysoptim/app-doctor/pkg/winreg"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Command-line flags
var (
	configPath      string
	logLevel        string
	logFormat       string
	dryRun          bool
	skipProcessKill bool
)

func main() {
	root := &cobra.Command{
		Use:           "app-doctor",
		Short:         "Best-effort remediation for desktop applications",
		Long:          "App Doctor runs ordered, independently-failable fix steps\nagainst an application's on-disk and registry state.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "app-doctor.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error, fatal)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (json, text)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Evaluate steps without mutating anything")
	root.PersistentFlags().BoolVar(&skipProcessKill, "skip-process-kill", false, "Leave target processes running")

	root.AddCommand(newListCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newFixCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs after configuration is loaded.
type app struct {
	config   *types.AppDoctorConfig
	registry *fixers.Registry
	env      *runner.Env
	opts     runner.Options
}

// setup loads configuration, initializes logging, and assembles the
// environment and fixer registry.
func setup() (*app, error) {
	config, err := util.LoadConfigOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		config.Settings.LogLevel = logLevel
	}
	if logFormat != "" {
		config.Settings.LogFormat = logFormat
	}
	if dryRun {
		config.Settings.DryRun = true
	}
	if skipProcessKill {
		config.Settings.SkipProcessKill = true
	}

	if err := logger.Initialize(config.Settings.LogLevel, config.Settings.LogFormat,
		config.Settings.LogOutput, config.Settings.LogFile); err != nil {
		return nil, err
	}

	registry := fixers.Default()
	if err := fixers.RegisterConfigTargets(registry, config); err != nil {
		return nil, err
	}

	env := &runner.Env{
		FS:        system.NewOSFS(),
		Registry:  winreg.NewStore(),
		Processes: system.NewProcessManager(),
		Paths:     util.ResolvePaths(),
	}

	return &app{
		config:   config,
		registry: registry,
		env:      env,
		opts: runner.Options{
			SettleDelay:     config.Settings.SettleDelayDuration(),
			SkipProcessKill: config.Settings.SkipProcessKill,
			DryRun:          config.Settings.DryRun,
		},
	}, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the applications App Doctor can fix",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			for _, info := range a.registry.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", info.Type, info.Description)
			}
			return nil
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <target>",
		Short: "Inspect a target application's state without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			fixer, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}

			findings := fixer.Analyze(cmd.Context(), a.env)
			if len(findings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to report")
				return nil
			}
			for _, f := range findings {
				fmt.Fprintf(cmd.OutOrStdout(), "[%-7s] %-8s %s\n", f.Severity, f.Category, f.Message)
				if f.Detail != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "          %s\n", f.Detail)
				}
			}
			return nil
		},
	}
}

func newFixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix <target>",
		Short: "Run a target application's fix steps",
		Long: "Runs every declared fix step once, in order. A failing step is\n" +
			"reported and the run continues; judge the result from the per-step\n" +
			"output or the summary line.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			fixer, err := a.registry.Get(args[0])
			if err != nil {
				return err
			}

			target, steps := fixer.Build(a.env.Paths)
			run, err := runner.New(target, steps, a.env, a.opts)
			if err != nil {
				return err
			}
			run.AddExporter(console.New(cmd.OutOrStdout()))

			report, err := run.Run(cmd.Context())
			if err != nil {
				if err == runner.ErrNotInstalled {
					// Nothing to fix; informational, not a failure.
					fmt.Fprintf(cmd.OutOrStdout(), "%s is not installed for this user\n", target.DisplayName)
					return nil
				}
				return err
			}

			if report.Failed() {
				fmt.Fprintln(cmd.OutOrStdout(), "some steps failed; see output above")
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the fix and analyze operations over a local HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			if !a.config.Server.Enabled {
				return fmt.Errorf("HTTP API is disabled; set server.enabled to true in %s", configPath)
			}

			readTimeout, _ := time.ParseDuration(a.config.Server.ReadTimeout)
			writeTimeout, _ := time.ParseDuration(a.config.Server.WriteTimeout)

			serverConfig := &server.Config{
				BindAddress:   a.config.Server.BindAddress,
				Port:          a.config.Server.Port,
				ReadTimeout:   readTimeout,
				WriteTimeout:  writeTimeout,
				RunnerOptions: a.opts,
			}

			var metrics *promexporter.Exporter
			if a.config.Metrics.Enabled {
				metrics, err = promexporter.NewExporter(a.config.Metrics.Namespace)
				if err != nil {
					return fmt.Errorf("failed to create metrics exporter: %w", err)
				}
				serverConfig.MetricsPath = a.config.Metrics.Path
				serverConfig.MetricsHandler = metrics.Handler()
			}

			srv, err := server.NewServer(serverConfig, a.registry, a.env)
			if err != nil {
				return err
			}
			if metrics != nil {
				srv.AddReportExporter(metrics)
			}

			if err := srv.Start(cmd.Context()); err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
			sig := <-sigChan
			logger.Infof("received signal %v, shutting down", sig)

			if err := srv.Stop(); err != nil {
				return err
			}
			return logger.Close()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "App Doctor %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  Built:      %s\n", BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
