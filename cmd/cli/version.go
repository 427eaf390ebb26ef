package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the orgu version",
	Run: func(cmd *cobra.Command, _ []string) {
		titleColor.Fprintf(cmd.OutOrStdout(), "orgu %s", version)
		dimColor.Fprintf(cmd.OutOrStdout(), " (%s %s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(versionCmd)
}
