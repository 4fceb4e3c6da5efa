package main

import (
	"fmt"

	"github.com/amp-labs/screenflow/build"
	"github.com/spf13/cobra"
)

// buildInfo is injected at link time:
//
//	go build -ldflags "-X 'main.buildInfo={\"version\":\"v1.0.0\"}'"
var buildInfo string //nolint:gochecknoglobals

var versionCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "version",
	Short: "Print the version of screenstack",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprint(cmd.OutOrStdout(), build.Current(buildInfo).String())
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(versionCmd)
}
