package main

import (
	"context"
	"fmt"

	"github.com/aretw0/tessera/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a page, template or schema file",
	Long:  `Reports duplicate node ids and props that break their component's contract.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rt, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close(context.Background())

		problems, err := cli.Validate(cmd.Context(), rt.Engine, sourceFlags(cmd))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}
			return fmt.Errorf("validation failed: %d problem(s)", len(problems))
		}
		fmt.Fprintln(out, "Schema is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addSourceFlags(validateCmd)
}
