package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley resolves utterances into intents and dispatches them to skills",
	Long: `Parley is a rule-based intent resolution and skill dispatch engine.
It can be driven from a terminal REPL, served over HTTP or exposed as an MCP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to parley.yaml")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
}

// loadConfig reads --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// setup loads the config, the logger and the session backend.
// Callers must Close the backend.
func setup(cmd *cobra.Command, quiet bool) (config.Config, *slog.Logger, *cli.Backend, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger := cli.NewLogger(cfg, quiet)
	b, err := cli.OpenBackend(cfg, logger)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, logger, b, nil
}
