package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/notes"
)

// NotesHandler exposes the notes saved by the agent.
type NotesHandler struct {
	store notes.Store
}

func NewNotesHandler(store notes.Store) *NotesHandler {
	return &NotesHandler{store: store}
}

// Register mounts GET /notes on the supplied router group.
func (h *NotesHandler) Register(r fiber.Router) {
	r.Get("/notes", h.list)
}

func (h *NotesHandler) list(c *fiber.Ctx) error {
	list, err := h.store.List(c.UserContext())
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(fiber.Map{"notes": list})
}
