package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/database"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/service"
)

type HealthHandler struct {
	search  service.SearchService
	backend string
	mongoDB *mongo.Client
}

// NewHealthHandler reports the vector store backend and, when the store is
// MongoDB, the state of the connection. mongoDB may be nil.
func NewHealthHandler(search service.SearchService, backend string, mongoDB *mongo.Client) *HealthHandler {
	return &HealthHandler{
		search:  search,
		backend: backend,
		mongoDB: mongoDB,
	}
}

func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	store := fiber.Map{"backend": h.backend}
	n, err := h.search.Count(c.UserContext())
	if err != nil {
		store["error"] = err.Error()
	} else {
		store["documents"] = n
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"store":  store,
		"dbs": fiber.Map{
			"main": database.Ping(c.UserContext(), h.mongoDB),
		},
	})
}
