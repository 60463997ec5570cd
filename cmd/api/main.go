package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/metafosfato/AgendaCity-Entregavel/internal/config"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/connect"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/container"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting AgendaCity API server",
		"environment", cfg.Environment,
		"data_driver", cfg.DataDriver,
		"storage_driver", cfg.StorageDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients, err := connect.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to connect backends", "error", err)
		os.Exit(1)
	}
	defer clients.Close(logger)

	appContainer, err := container.NewContainer(ctx, cfg, clients, logger)
	if err != nil {
		logger.Error("Failed to build container", "error", err)
		clients.Close(logger)
		os.Exit(1)
	}
	defer appContainer.Close()

	if appContainer.Mongo != nil {
		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := appContainer.Mongo.EnsureIndexes(indexCtx); err != nil {
			logger.Warn("Failed to ensure MongoDB indexes", "error", err)
		}
		cancel()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      routes.SetupRoutes(appContainer),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("Server failed to start", "error", err)
	}

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}
