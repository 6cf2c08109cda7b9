package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/internal/app"
	mcpinternal "github.com/felixgeelhaar/moodlens/internal/mcp"
	"github.com/felixgeelhaar/moodlens/pkg/config"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.MCPAddr = serveAddr
		}

		logCfg := observability.DefaultLogConfig()
		logCfg.Output = cmd.ErrOrStderr()
		if cfg.IsDevelopment() {
			logCfg.Level = observability.LogLevelDebug
		}
		logger := observability.NewLogger(logCfg)

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		if container.Bus != nil {
			container.OutboxProcessor.Start(ctx)
		}

		err = mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from MCP_ADDR)")
}
