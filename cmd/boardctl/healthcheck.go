package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hurdad/flow-board/internal/config"
	"github.com/hurdad/flow-board/internal/runner"
	"github.com/hurdad/flow-board/internal/store"
	"github.com/hurdad/flow-board/pkg/state"
)

var healthcheckPersist bool

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Run the healthcheck flow locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var runStore store.Store = store.NewMemory()
		if healthcheckPersist {
			etcdStore, err := store.NewEtcd(cfg.EtcdEndpoints)
			if err != nil {
				return fmt.Errorf("connect run store: %w", err)
			}
			defer etcdStore.Close()
			runStore = etcdStore
		}

		flow := &runner.FlowRunner{
			Deployment: "healthcheck/manual",
			Tasks: []runner.Task{
				{
					ID:   "say-hi",
					Name: "say-hi",
					Run: func(ctx context.Context, params map[string]string) error {
						logger.Info(ctx, "Hello from the Health Check Flow! 👋")
						return nil
					},
				},
				{
					ID:   "platform-info",
					Name: "log-platform-info",
					Run: func(ctx context.Context, params map[string]string) error {
						host, _ := os.Hostname()
						logger.Info(ctx, "platform info",
							slog.String("host", host),
							slog.String("go_version", runtime.Version()),
							slog.String("os_arch", runtime.GOOS+"/"+runtime.GOARCH),
							slog.String("boardctl_version", Version),
							slog.String("api_version", config.APIVersion),
						)
						return nil
					},
				},
			},
			Upstream: map[string][]string{"platform-info": {"say-hi"}},
			Store:    runStore,
			Logger:   logger,
		}

		runID, states, err := flow.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("healthcheck flow: %w", err)
		}

		if err := writeJSON(cmd, map[string]any{
			"run_id": runID,
			"tasks":  states,
		}); err != nil {
			return err
		}

		for id, st := range states {
			if st != state.Completed {
				return fmt.Errorf("healthcheck task %s settled %s", id, st)
			}
		}
		return nil
	},
}

func init() {
	healthcheckCmd.Flags().BoolVar(
		&healthcheckPersist,
		"persist",
		false,
		"Record the healthcheck run in the etcd run store",
	)

	rootCmd.AddCommand(healthcheckCmd)
}
