package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/notes"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/service"
)

// Services bundles what the routes need.
type Services struct {
	Ingest  service.IngestService
	Search  service.SearchService
	Chat    service.ChatService
	Notes   notes.Store
	Owner   string
	Repo    string
	Backend string
	MongoDB *mongo.Client
}

func RegisterRoutes(app *fiber.App, svcs Services) {
	v1 := app.Group("/api/v1")
	NewIngestHandler(svcs.Ingest, svcs.Owner, svcs.Repo).Register(v1)
	NewSearchHandler(svcs.Search).Register(v1)
	NewAskHandler(svcs.Chat).Register(v1)
	NewNotesHandler(svcs.Notes).Register(v1)

	NewHealthHandler(svcs.Search, svcs.Backend, svcs.MongoDB).Register(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
