package main

import (
	"context"

	"github.com/aretw0/tessera/internal/cli"
	"github.com/aretw0/tessera/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the Tessera engine as an HTTP server exposing editing sessions,
rendering, the component palette and live page updates (SSE).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, rt, _, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			cfg.Listen, _ = cmd.Flags().GetString("listen")
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.Serve(sigCtx, rt, cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
