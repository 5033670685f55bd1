package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/ocrbatch/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  usageArgs(cobra.NoArgs),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Summary())
	},
}
