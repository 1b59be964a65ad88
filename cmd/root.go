// Package cmd implements the billnotify command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltgrid/billnotify/internal/build"
)

var rootCmd = &cobra.Command{
	Use:     "billnotify",
	Short:   "Electrical-bill payment runner and failure notifier",
	Long:    "Attempts scheduled electrical-bill payments for a customer roster and notifies customers when an attempt fails.",
	Version: build.String(),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(NewUpdateCmd())
}
