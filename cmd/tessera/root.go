package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/tessera/internal/cli"
	"github.com/aretw0/tessera/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Tessera is a component-based page composition engine",
	Long: `Tessera edits pages as trees of registered components, keeps an undo
history per editing session and renders pages to a visual tree.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./tessera.yaml if present)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("templates", "", "Directory of template documents (default: built-in templates)")
	flags.String("store", "", "Page store: memory, file, redis, sqlite, postgres or mysql")
	flags.String("dsn", "", "Connection string for the sql stores")
	flags.String("store-path", "", "Directory of the file store")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, os.LookupEnv)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("templates") {
		cfg.Templates, _ = cmd.Flags().GetString("templates")
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Driver, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("dsn") {
		cfg.Store.DSN, _ = cmd.Flags().GetString("dsn")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}
	return cfg, cfg.Validate()
}

// setup loads the configuration and builds the logger and runtime.
func setup(cmd *cobra.Command) (config.Config, *cli.Runtime, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg.Log, debug)
	if err != nil {
		return cfg, nil, nil, err
	}
	rt, err := cli.NewRuntime(cfg, logger)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, rt, logger, nil
}
