package middleware

import (
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-Id"

// Logging attaches a request-scoped clog logger to the user context and logs
// each request once it completes.
func Logging() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)

		log := clog.FromContext(c.UserContext()).With("request_id", id)
		c.SetUserContext(clog.WithLogger(c.UserContext(), log))

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		log = log.With("method", c.Method()).
			With("path", c.Path()).
			With("status", status).
			With("latency", time.Since(start).String())
		if err != nil {
			log.With("error", err).Warn("[HTTP] Request failed")
		} else {
			log.Info("[HTTP] Request served")
		}
		return err
	}
}
