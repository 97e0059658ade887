package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/gamebook/internal/config"
	"github.com/JonMunkholm/gamebook/internal/core"
	"github.com/JonMunkholm/gamebook/internal/logging"
	"github.com/JonMunkholm/gamebook/internal/store"
	"github.com/JonMunkholm/gamebook/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"corpus_source", cfg.Corpus.Source,
		"validate", cfg.Corpus.Validate,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("configuration", "config", cfg.String())

	// Open the document store
	ctx := context.Background()
	docs, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	opts := core.LoadOptions{Validate: cfg.Corpus.Validate}
	loader := core.NewLoader(docs, cfg.Corpus.LoadWorkers, logger)

	// Report what the corpus looks like at startup
	if seasons, err := loader.Seasons(ctx, opts); err != nil {
		logger.Warn("could not scan corpus", "error", err)
	} else {
		games := 0
		for _, s := range seasons {
			games += s.Games
		}
		logger.Info("corpus loaded", "seasons", len(seasons), "games", games)
	}

	limiter := core.NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime)
	server := web.NewServer(web.Deps{
		Loader:   loader,
		Exporter: core.NewExporter(loader, opts, logger),
		Limiter:  limiter,
		Options:  opts,
		Logger:   logger,
	}, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			logger.Info("waiting for exports to complete", "active", status.Active)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		closeStore()
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}
