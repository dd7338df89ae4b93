// Package cmd provides the CLI commands for lure
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "lure",
	Short: "Show what you're listening to in your Revolt status",
	Long: `lure polls Last.fm or ListenBrainz for the track you're playing and
keeps your Revolt status in sync with it. When it is stopped it puts back the
status you had before it started.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
}
