package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/service"
)

// AskHandler wires HTTP → ChatService.
type AskHandler struct {
	svc service.ChatService
}

// NewAskHandler returns a struct pointer so you can call Register on it.
func NewAskHandler(svc service.ChatService) *AskHandler {
	return &AskHandler{svc: svc}
}

// Register mounts the /ask endpoint on the supplied router group.
func (h *AskHandler) Register(r fiber.Router) {
	r.Post("/ask", h.ask)
}

// ask handles POST /ask  { "question": "...", "history": [...] }
func (h *AskHandler) ask(c *fiber.Ctx) error {
	var req models.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.Question == "" {
		return fiber.NewError(fiber.StatusBadRequest, "question is required")
	}

	ans, err := h.svc.Ask(c.UserContext(), req.Question, req.History)
	if err != nil {
		var lle *apperr.LoopLimitExceeded
		if errors.As(err, &lle) {
			// Report how far the agent got alongside the error.
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
				"steps": stepViews(ans.Steps),
			})
		}
		return toFiberError(err)
	}

	return c.JSON(models.AskResponse{
		Answer:     ans.Text,
		Iterations: ans.Iterations,
		Steps:      stepViews(ans.Steps),
	})
}

func stepViews(entries []agent.ScratchEntry) []models.StepView {
	views := make([]models.StepView, 0, len(entries))
	for _, e := range entries {
		views = append(views, models.StepView{
			Tool:        e.Invocation.Name,
			Args:        e.Invocation.Args,
			Observation: e.Observation,
			IsError:     e.IsError,
		})
	}
	return views
}
