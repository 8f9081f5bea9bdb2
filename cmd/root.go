// Package cmd contains the sparkrun CLI commands.
package cmd

import (
	"github.com/ohsu-comp-bio/sparkrun/cmd/run"
	"github.com/ohsu-comp-bio/sparkrun/cmd/storage"
	"github.com/ohsu-comp-bio/sparkrun/cmd/version"
	"github.com/spf13/cobra"
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "sparkrun",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.AddCommand(completionCmd)
	RootCmd.AddCommand(genMarkdownCmd)
	RootCmd.AddCommand(run.NewCommand())
	RootCmd.AddCommand(storage.NewCommand())
	RootCmd.AddCommand(version.Cmd)
}
