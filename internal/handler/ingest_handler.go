package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/service"
)

// IngestHandler wires HTTP → IngestService.
type IngestHandler struct {
	svc          service.IngestService
	defaultOwner string
	defaultRepo  string
}

// NewIngestHandler creates a new IngestHandler. owner and repo are used when
// the request does not name a repository.
func NewIngestHandler(svc service.IngestService, owner, repo string) *IngestHandler {
	return &IngestHandler{svc: svc, defaultOwner: owner, defaultRepo: repo}
}

// Register mounts POST /ingest on the supplied router group.
func (h *IngestHandler) Register(r fiber.Router) {
	r.Post("/ingest", h.ingest)
}

// ingest handles POST /ingest  { "owner": "...", "repo": "..." }
func (h *IngestHandler) ingest(c *fiber.Ctx) error {
	var req models.IngestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
	}
	if req.Owner == "" {
		req.Owner = h.defaultOwner
	}
	if req.Repo == "" {
		req.Repo = h.defaultRepo
	}
	if req.Owner == "" || req.Repo == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner and repo are required")
	}

	report, err := h.svc.Ingest(c.UserContext(), req.Owner, req.Repo)
	if err != nil {
		return toFiberError(err)
	}

	resp := fiber.Map{"report": report}
	if report.FetchErr != nil {
		resp["fetch_error"] = report.FetchErr.Error()
	}
	return c.JSON(resp)
}
