package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fabricator",
	Short: "Logic Fabricator: a symbolic reasoning playground",
	Long: `Logic Fabricator lets you define belief systems of rules and facts,
simulate new statements against them, and watch contradictions fork reality.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
