package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/moodlens/adapter/api"
	"github.com/felixgeelhaar/moodlens/internal/app"
	"github.com/felixgeelhaar/moodlens/pkg/config"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if container.Bus != nil {
		container.OutboxProcessor.Start(ctx)
	}

	server := newServer(cfg, container)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}
}

func newServer(cfg *config.Config, container *app.Container) *api.Server {
	handler := api.NewJournalHandler(api.JournalHandlerConfig{
		Classifier:      container.Classifier,
		CreateEntry:     container.CreateEntryHandler,
		Reclassify:      container.ReclassifyEntriesHandler,
		DeleteEntry:     container.DeleteEntryHandler,
		ListEntries:     container.ListEntriesHandler,
		GetEntry:        container.GetEntryHandler,
		GetTrend:        container.GetMoodTrendHandler,
		Flush:           container.FlushEvents,
		UserID:          container.UserID,
		HelplineCountry: cfg.HelplineCountry,
		TrendWindow:     cfg.TrendWindow,
		Workers:         cfg.ReclassifyWorkers,
		Logger:          container.Logger,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.APIAddr
	serverCfg.AuthToken = cfg.APIAuthToken
	serverCfg.Health = container.Health

	return api.NewServer(serverCfg, handler, container.Logger)
}
