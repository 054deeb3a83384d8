package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

// statusForError maps the sentinel taxonomy to HTTP statuses. Rate limits
// from collaborators count as upstream failures, not client ones.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidConfig):
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrDuplicate), errors.Is(err, common.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, common.ErrExternalService), errors.Is(err, common.ErrRateLimit):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler is the app-wide fiber error handler: every handler returns
// plain errors and this turns them into {"error": "..."} responses. Internal
// errors are logged and masked.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	status := statusForError(err)
	message := err.Error()

	var userErr *common.UserError
	if errors.As(err, &userErr) {
		message = userErr.UserMessage
	}
	if status == fiber.StatusInternalServerError {
		s.log.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals(localRequestID),
			"error", err)
		message = "internal server error"
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}

// paramID reads an integer route parameter.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer id", common.ErrValidation, name)
	}
	return id, nil
}

// monthParam reads a YYYY-MM route parameter into its first-of-month date.
func monthParam(c *fiber.Ctx) (time.Time, error) {
	month, err := model.ParseMonth(c.Params("month"))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return month, nil
}
