package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/ratelimit"

	"github.com/vodbridge/vodbridge/config"
	"github.com/vodbridge/vodbridge/internal/baseurl"
	"github.com/vodbridge/vodbridge/internal/catalog"
	"github.com/vodbridge/vodbridge/internal/enrich"
	"github.com/vodbridge/vodbridge/internal/health"
	"github.com/vodbridge/vodbridge/internal/httpx"
	"github.com/vodbridge/vodbridge/internal/proxy"
	"github.com/vodbridge/vodbridge/internal/registry"
	"github.com/vodbridge/vodbridge/internal/search"
	"github.com/vodbridge/vodbridge/internal/server"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the configuration file")
	port := flag.String("port", "", "Server port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	reg, err := registry.New(cfg.Sources)
	if err != nil {
		slog.Error("Failed to build source registry", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.OutboundRPS > 0 {
		limiter = ratelimit.New(cfg.OutboundRPS)
	}

	httpClient := httpx.New(limiter)
	catalogClient := catalog.New(httpClient, cfg.Timeouts.Search(), cfg.Timeouts.Detail(), logger)
	enricher := enrich.New(catalogClient, logger)
	orchestrator := search.New(reg, catalogClient, enricher, logger)
	proxyService := proxy.NewService(httpx.NewStreamClient(cfg.Timeouts.Proxy(), cfg.ProxyVerifyTLS), logger)
	prober := health.NewProber(reg, httpClient, cfg.Timeouts.Probe(), logger)
	resolver := &baseurl.Resolver{Configured: cfg.BaseURL, Exclusions: cfg.BaseURLExclusions}

	srv := server.New(cfg, reg, orchestrator, catalogClient, proxyService, prober, resolver, logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Router(),
	}

	go func() {
		slog.Info("Starting vodbridge API server", "port", cfg.Server.Port, "sources", reg.Len())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
