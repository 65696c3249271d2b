package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/bg-remover/config"
	"github.com/angeloszaimis/bg-remover/internal/httpserver"
	"github.com/angeloszaimis/bg-remover/internal/metrics"
	"github.com/angeloszaimis/bg-remover/internal/removebg"
	"github.com/angeloszaimis/bg-remover/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging.Level, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := newRemoveBGClient(cfg)
	if err := client.Configured(); err != nil {
		log.Warn("remove.bg API key missing, /remove-bg will answer 400 until REMOVEBG_API_KEY is set")
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.BufferSize, log)
		collector.Start(ctx)
	}

	router := setupRouter(cfg, log, client, collector)

	srv, err := httpserver.New(cfg.Server.Address, router, cfg.ServerWriteTimeout())
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting server",
			slog.String("addr", srv.Addr()),
			slog.String("upstream", client.Endpoint()),
			slog.Duration("upstream_timeout", client.Timeout()),
			slog.String("static_root", cfg.Static.Root))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func newRemoveBGClient(cfg *config.Config) *removebg.Client {
	return removebg.NewClient(removebg.Options{
		Endpoint: cfg.RemoveBG.Endpoint,
		APIKey:   cfg.RemoveBG.APIKey,
		Size:     cfg.RemoveBG.Size,
		Timeout:  cfg.UpstreamTimeout(),
	})
}
