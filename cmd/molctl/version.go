package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mallocule/heap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "molctl %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built: %s\n", date)
		fmt.Fprintf(out, "  moldebug: %t\n", heap.DebugBuild)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
