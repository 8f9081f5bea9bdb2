package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsDir = "./sparkrun-cmd-docs"

var genMarkdownCmd = &cobra.Command{
	Use:    "genmarkdown",
	Short:  "generate markdown formatted documentation for the sparkrun commands",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(docsDir, 0755); err != nil {
			return err
		}
		return doc.GenMarkdownTree(RootCmd, docsDir)
	},
}
