package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurdad/flow-board/pkg/filter"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Print the dashboard's default global filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := filter.ToJSON(filter.NewDefaults())
		if err != nil {
			return fmt.Errorf("encode filter defaults: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
}
