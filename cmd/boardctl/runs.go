package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hurdad/flow-board/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the flow run store",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded flow runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := store.NewEtcd(cfg.EtcdEndpoints)
		if err != nil {
			return fmt.Errorf("connect run store: %w", err)
		}
		defer runStore.Close()

		runs, err := runStore.ListFlowRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("list flow runs: %w", err)
		}

		return writeJSON(cmd, runs)
	},
}

var runsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream flow run changes until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := store.NewEtcd(cfg.EtcdEndpoints)
		if err != nil {
			return fmt.Errorf("connect run store: %w", err)
		}
		defer runStore.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		watch := runStore.WatchRuns(ctx)
		defer watch.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watch.Events():
				if !ok {
					return nil
				}
				if err := writeJSON(cmd, map[string]any{
					"type": ev.Type,
					"run":  ev.Run,
				}); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsWatchCmd)
	rootCmd.AddCommand(runsCmd)
}
