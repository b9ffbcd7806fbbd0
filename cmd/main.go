package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caremesh/interlink/config"
	"github.com/caremesh/interlink/internal/audit"
	"github.com/caremesh/interlink/internal/httpserver"
	"github.com/caremesh/interlink/internal/manager"
	"github.com/caremesh/interlink/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink := audit.NewSlogSink(log)

	mgr, err := manager.New(cfg, sink, log)
	if err != nil {
		log.Error("Failed to build communication layer", slog.Any("err", err))
		os.Exit(1)
	}

	mgr.Start(ctx)
	defer mgr.Stop()

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(mgr))
	if err != nil {
		log.Error("Failed to create admin server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("Admin server listening", slog.String("address", cfg.Server.Address))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting admin server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}
