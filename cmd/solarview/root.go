package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "solarview",
	Short: "Solar-system position viewer",
	Long:  "solarview drives a simulated clock, polls a position service and renders body placements.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(servePositionsCmd)
	rootCmd.AddCommand(dashboardCmd)
}
