package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurdad/flow-board/internal/config"
)

// Version is stamped by the build.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print boardctl version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "boardctl %s (api %s)\n", Version, config.APIVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
