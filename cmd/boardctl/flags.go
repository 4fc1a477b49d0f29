package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurdad/flow-board/internal/flags"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List configured feature flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flagger, err := flags.Setup(cfg.FlagsPath, cfg.FlaggingEnabled)
		if err != nil {
			return err
		}

		if !cfg.FlaggingEnabled {
			fmt.Fprintln(cmd.OutOrStdout(), "feature flagging is disabled")
			return nil
		}

		type flagRow struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		}

		rows := []flagRow{}
		for _, f := range flagger.All() {
			rows = append(rows, flagRow{Name: f.Name, Enabled: f.Enabled})
		}

		return writeJSON(cmd, rows)
	},
}

func init() {
	rootCmd.AddCommand(flagsCmd)
}
