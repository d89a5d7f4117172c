package main

import (
	"context"

	"github.com/aretw0/tessera/internal/cli"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the page templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rt, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close(context.Background())
		return cli.ListTemplates(cmd.Context(), rt.Engine, cmd.OutOrStdout())
	},
}

var newCmd = &cobra.Command{
	Use:   "new <page> <template>",
	Short: "Create a page from a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rt, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close(context.Background())
		return cli.NewPage(cmd.Context(), rt.Engine, args[0], args[1], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(newCmd)
}
