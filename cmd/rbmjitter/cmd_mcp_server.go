package main

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/rbmjitter/internal/config"
	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/logging"
	"github.com/nvandessel/rbmjitter/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Serve the jitter_analyze and jitter_history tools to MCP clients over
stdio. Paths supplied by the client are resolved against --root and must stay
inside it. Logs go to stderr.

Example client configuration:
  {"command": "rbmjitter", "args": ["mcp-server", "--root", "/path/to/project"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("failed to resolve root: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			trace := logging.NewStageLogger(filepath.Join(absRoot, constants.StateDirName), cfg.Logging.Level)
			defer trace.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "rbmjitter",
				Version:  version,
				Root:     absRoot,
				Defaults: cfg,
				Logger:   logger,
				Trace:    trace,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			logger.Info("mcp server starting", "root", absRoot)
			return server.Run(cmd.Context())
		},
	}
}
