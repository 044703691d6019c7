// Package main provides the entry point for the moltmem MCP server.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/moltbot/moltmem/internal/config"
	"github.com/moltbot/moltmem/internal/db"
	"github.com/moltbot/moltmem/internal/embedding"
	"github.com/moltbot/moltmem/internal/memory"
	"github.com/moltbot/moltmem/internal/server"
	"github.com/moltbot/moltmem/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("moltmem starting",
		"version", version,
		"embedding_provider", cfg.EmbeddingProvider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	dbClient, err := db.NewClient(ctx, cfg.DBConfig(), logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		dbClient.Close()
	}()

	// Initialize database schema
	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// Create embedder. A missing credential is not fatal: the service runs
	// degraded, persisting and searching without vectors.
	embedder, err := embedding.New(cfg.EmbeddingConfig())
	if err != nil {
		if errors.Is(err, embedding.ErrNotConfigured) {
			logger.Warn("embedding provider not configured, running without vectors")
			embedder = nil
		} else {
			logger.Error("failed to create embedder", "error", err)
			os.Exit(1)
		}
	} else if err := embedding.ValidateDimension(embedder, db.EmbeddingDimension); err != nil {
		// A provider whose vectors don't fit the schema would fail on every
		// write, so run degraded instead of logging a warning per message.
		logger.Error("embedding provider disabled", "error", err)
		embedder = nil
	} else {
		logger.Info("embedder initialized", "model", embedder.Model(), "dimension", embedder.Dimension())
	}

	svc := memory.New(dbClient, embedder, logger)

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()

	// Register tools
	deps := &tools.Dependencies{
		Memory: svc,
		Logger: logger,
	}
	tools.RegisterAll(srv.MCPServer(), deps)

	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	// Let in-flight embedding updates land before closing the pool.
	svc.Wait()
	logger.Info("shutdown complete")
}
