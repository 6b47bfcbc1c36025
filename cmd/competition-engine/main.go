package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dogsport-ua/competition-engine/internal/api"
	"github.com/dogsport-ua/competition-engine/internal/catalog"
	"github.com/dogsport-ua/competition-engine/internal/cleanup"
	"github.com/dogsport-ua/competition-engine/internal/competition"
	"github.com/dogsport-ua/competition-engine/internal/config"
	"github.com/dogsport-ua/competition-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting competition-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Connect the profile/dog directory store
	directory, err := storage.NewDirectory(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to connect directory store", "error", err)
		os.Exit(1)
	}
	slog.Info("directory store connected successfully")

	// Load class catalog
	classCatalog := catalog.New()
	if err := classCatalog.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load class catalog", "dir", cfg.Catalog.Dir, "error", err)
	}

	// Live feed hub for the organizer review page
	liveHub := api.NewLiveHub()

	// Initialize competition engine
	service := competition.NewService(repo, directory, classCatalog, liveHub)

	// Initialize registration closer worker
	closer := cleanup.NewCloser(service, cfg.Closer.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start closer worker
	closer.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, service, directory, classCatalog, repo, liveHub)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Close backing stores
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}
	if err := directory.Close(); err != nil {
		slog.Error("directory close error", "error", err)
	}

	slog.Info("competition-engine stopped")
}
