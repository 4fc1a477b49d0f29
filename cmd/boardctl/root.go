package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hurdad/flow-board/internal/config"
	"github.com/hurdad/flow-board/internal/observability"
)

var (
	cfg     config.Config
	logger  observability.Logger
	verbose bool

	otelShutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "boardctl works with the flow-board dashboard",
	Long: `boardctl is the CLI for flow-board.

It inspects dashboard filter defaults, triggers deployment runs, and runs
operational flows like the healthcheck.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.ObservabilityEnabled {
			logger = observability.NewStdLogger()
			return nil
		}

		shutdown, lg, err := observability.Setup(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("observability setup: %w", err)
		}
		otelShutdown = shutdown
		logger = lg
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if otelShutdown == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cfg = config.FromEnv()

	rootCmd.PersistentFlags().StringVar(
		&cfg.APIURL,
		"api",
		cfg.APIURL,
		"Dashboard API base URL (or set FLOWBOARD_API_URL)",
	)
	rootCmd.PersistentFlags().StringVar(
		&cfg.APIKey,
		"api-key",
		cfg.APIKey,
		"Dashboard API key (or set FLOWBOARD_API_KEY)",
	)
	rootCmd.PersistentFlags().StringSliceVar(
		&cfg.EtcdEndpoints,
		"etcd",
		cfg.EtcdEndpoints,
		"etcd endpoints for the run store (or set ETCD_ENDPOINTS)",
	)
	rootCmd.PersistentFlags().StringVar(
		&cfg.FlagsPath,
		"flags-config",
		cfg.FlagsPath,
		"Feature flag configuration file (or set FLOWBOARD_FLAGS_PATH)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&cfg.FlaggingEnabled,
		"feature-flagging",
		cfg.FlaggingEnabled,
		"Enable feature flagging (or set FLOWBOARD_FEATURE_FLAGGING_ENABLED)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&cfg.ObservabilityEnabled,
		"observability-enabled",
		cfg.ObservabilityEnabled,
		"Enable OpenTelemetry exporters (or set FLOWBOARD_OBSERVABILITY_ENABLED)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output",
	)

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
}

func debugf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
