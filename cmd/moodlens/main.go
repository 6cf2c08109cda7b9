package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/adapter/cli/journal"
	"github.com/felixgeelhaar/moodlens/adapter/cli/mcp"
	"github.com/felixgeelhaar/moodlens/adapter/cli/mood"
	"github.com/felixgeelhaar/moodlens/internal/app"
	mcpinternal "github.com/felixgeelhaar/moodlens/internal/mcp"
	"github.com/felixgeelhaar/moodlens/pkg/config"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFromEnv().Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCfg := observability.DefaultLogConfig()
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logger := observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	// Classification works without storage, so a failed container only
	// disables the journal commands in development.
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		logger.Warn("failed to initialize container, journal commands disabled", "error", err)
	} else {
		defer container.Close()
		cliApp = mcpinternal.NewCLIApp(container)
	}

	cli.SetApp(cliApp)

	for _, cmd := range mood.Commands() {
		cli.AddCommand(cmd)
	}
	cli.AddCommand(journal.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute()
}
