package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/notes"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/service"
)

// toFiberError maps service errors onto HTTP statuses.
func toFiberError(err error) error {
	var (
		ce  *apperr.ConfigurationError
		re  *apperr.RemoteError
		lle *apperr.LoopLimitExceeded
	)
	switch {
	case errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, agent.ErrEmptyQuestion),
		errors.Is(err, notes.ErrEmptyNote):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &ce):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.As(err, &lle):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &re):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
