package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/angeloszaimis/bg-remover/config"
	"github.com/angeloszaimis/bg-remover/internal/handler"
	"github.com/angeloszaimis/bg-remover/internal/metrics"
	"github.com/angeloszaimis/bg-remover/internal/middleware"
)

func setupRouter(cfg *config.Config, log *slog.Logger, remover handler.BackgroundRemover, collector *metrics.Collector) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.Get("/health", handler.Health)
	if collector != nil {
		r.Get("/metrics", collector.Handler())
	}

	r.Post("/remove-bg", handler.NewRemoveBackgroundHandler(log, remover, collector).ServeHTTP)

	static := handler.NewStaticHandler(log, os.DirFS(cfg.Static.Root), cfg.Static.Index)
	r.Get("/", static.ServeHTTP)
	r.Head("/", static.ServeHTTP)
	r.Get("/*", static.ServeHTTP)
	r.Head("/*", static.ServeHTTP)

	return r
}
