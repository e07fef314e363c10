package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	mcpadapter "github.com/aretw0/parley/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Model Context Protocol server",
	Long: `Exposes handle_turn, reset_session and list_intents as MCP tools.
The stdio transport keeps stdout for JSON-RPC, so logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("transport") {
			cfg.MCP.Transport, _ = cmd.Flags().GetString("transport")
		}
		if cmd.Flags().Changed("addr") {
			cfg.MCP.Addr, _ = cmd.Flags().GetString("addr")
		}

		logger := cli.NewLogger(cfg, false)
		backend, err := cli.OpenBackend(cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		engine, err := cli.BuildEngine(cfg, backend, logger)
		if err != nil {
			return err
		}
		srv := mcpadapter.NewServer(engine, mcpadapter.WithLogger(logger))

		switch cfg.MCP.Transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			baseURL, _ := cmd.Flags().GetString("base-url")
			if baseURL == "" {
				baseURL = "http://localhost" + cfg.MCP.Addr
			}
			return srv.ServeSSE(ctx, cfg.MCP.Addr, baseURL)
		default:
			return fmt.Errorf("unknown transport %q (use stdio or sse)", cfg.MCP.Transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Listen address for the sse transport")
	mcpCmd.Flags().String("base-url", "", "Public base URL for the sse transport")
}
