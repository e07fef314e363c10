package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Talk to the engine from the terminal",
	Long: `Starts an interactive conversation on stdin/stdout.
With --json, each input line is a JSON request and each outcome a JSON line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")

		cfg, logger, backend, err := setup(cmd, jsonMode)
		if err != nil {
			return err
		}
		defer backend.Close()

		engine, err := cli.BuildEngine(cfg, backend, logger)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunREPL(ctx, engine, cfg, cli.ReplOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Fresh:     fresh,
		}, logger)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().Bool("json", false, "Use JSON-lines input and output")
	replCmd.Flags().StringP("session", "s", "", "Session ID (default: a new random ID)")
	replCmd.Flags().Bool("fresh", false, "Reset the session before starting")
}
