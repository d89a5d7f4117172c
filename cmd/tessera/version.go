package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tessera"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tessera",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tessera version %s\n", strings.TrimSpace(tessera.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
