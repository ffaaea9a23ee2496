package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/service"
)

// SearchHandler wires HTTP → SearchService.
type SearchHandler struct {
	svc service.SearchService
}

// NewSearchHandler returns a struct pointer so you can call Register on it.
func NewSearchHandler(svc service.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Register mounts the /search endpoint on the supplied router group.
func (h *SearchHandler) Register(r fiber.Router) {
	r.Get("/search", h.search)
}

// search handles GET /search?q=...&k=3
func (h *SearchHandler) search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter 'q' is required")
	}

	k, err := strconv.Atoi(c.Query("k", "3"))
	if err != nil || k <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "parameter 'k' must be a positive integer")
	}

	results, err := h.svc.Search(c.UserContext(), q, k)
	if err != nil {
		return toFiberError(err)
	}

	return c.JSON(fiber.Map{
		"query":   q,
		"results": results,
	})
}
