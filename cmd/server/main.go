package main

import (
	"context"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/config"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/handler"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/middleware"
)

// main is the single entry‑point for the REST API.
func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "Failed to load configuration: %v", err)
	}
	app.SetupLogging(os.Stderr, cfg.LogLevel)
	clog.InfoContextf(ctx, "Configuration loaded: store=%s collection=%s embedder=%s llm=%s",
		cfg.VectorStore, cfg.Collection, cfg.Embedder, cfg.LLMProvider)

	// Build stores, clients and services
	c, err := app.New(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "Failed to initialise: %v", err)
	}
	defer c.Close()

	// Create Fiber app
	srv := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Add middleware
	srv.Use(middleware.Logging())

	// Register routes
	handler.RegisterRoutes(srv, handler.Services{
		Ingest:  c.Ingest,
		Search:  c.Search,
		Chat:    c.Chat,
		Notes:   c.Notes,
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Backend: cfg.VectorStore,
		MongoDB: c.Mongo,
	})

	// Start server
	clog.InfoContextf(ctx, "Server starting on port %s", cfg.Port)
	if err := srv.Listen(":" + cfg.Port); err != nil {
		clog.FatalContextf(ctx, "Server failed to start: %v", err)
	}
}
