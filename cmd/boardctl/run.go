package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurdad/flow-board/internal/coordination"
	"github.com/hurdad/flow-board/pkg/state"
)

var runCmd = &cobra.Command{
	Use:   "run <deployment-name>",
	Short: "Schedule a deployment run and wait for it to settle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment := args[0]

		coord := coordination.New(cfg, logger)
		debugf("scheduling deployment %s via %s", deployment, cfg.APIURL)

		runID, final, err := coord.RunDeployment(cmd.Context(), deployment)
		if err != nil {
			return fmt.Errorf("run deployment: %w", err)
		}

		if err := writeJSON(cmd, map[string]string{
			"run_id": runID,
			"state":  string(final),
		}); err != nil {
			return err
		}

		if final != state.Completed {
			return fmt.Errorf("flow run %s settled %s", runID, final)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
