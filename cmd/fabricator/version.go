package main

import (
	"fmt"

	"github.com/Harshitk-cp/fabricator/internal/buildconfig"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fabricator %s (%s)\n", buildconfig.Version(), buildconfig.Commit())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
