package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/amp-labs/screenflow/logger"
	"github.com/amp-labs/screenflow/shutdown"
	"github.com/amp-labs/screenflow/stage"
	"github.com/amp-labs/screenflow/telemetry"
	"github.com/spf13/cobra"
)

const telemetryFlushTimeout = 5 * time.Second

var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   appName,
	Short: "Screenstack drives asynchronous screen transitions",
	Long: `Screenstack runs the screenflow transition engine. Use "run" to replay
YAML scenarios and check their outcomes, or "interactive" to switch between
fading screens from the terminal.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentFlags().String("env", stage.Current().String(),
		"Deployment environment reported to telemetry (local, test, dev, staging, prod)")
}

// setup installs the signal handler, logging and telemetry before any
// subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	ctx := shutdown.SetupHandler(cmd.Context())
	ctx = logger.WithSubsystem(ctx, appName)

	logger.ConfigureLogging(ctx, appName)

	envName, err := cmd.Flags().GetString("env")
	if err != nil {
		return err
	}

	env := stage.Current()
	if envName != env.String() {
		if env, err = stage.Parse(envName); err != nil {
			return err
		}
	}

	otelConfig, err := telemetry.LoadConfigFromEnv(ctx, env.String())
	if err != nil {
		return err
	}

	if err := telemetry.Initialize(ctx, otelConfig); err != nil {
		return err
	}

	if handler := telemetry.LogHandler(); handler != nil {
		logger.ConfigureLogging(ctx, appName, logger.WithExtraHandler(handler))
	}

	shutdown.BeforeShutdown(flushTelemetry)

	cmd.SetContext(ctx)

	return nil
}

func teardown(*cobra.Command, []string) error {
	flushTelemetry()

	return nil
}

func flushTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
	defer cancel()

	if err := telemetry.Shutdown(ctx); err != nil {
		slog.Warn("error shutting down telemetry", "error", err)
	}
}
