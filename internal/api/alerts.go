package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

func (s *Server) listAlerts(c *fiber.Ctx) error {
	includeDismissed := c.QueryBool("include_dismissed", false)
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", common.ErrValidation)
	}

	alerts, err := s.store.GetAlerts(c.Context(), userID(c), includeDismissed, limit)
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	unread, err := s.store.UnreadAlertCount(c.Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"alerts": alerts,
		"unread": unread,
	})
}

func (s *Server) readAlert(c *fiber.Ctx) error {
	return s.updateAlert(c, s.store.MarkAlertRead)
}

func (s *Server) dismissAlert(c *fiber.Ctx) error {
	return s.updateAlert(c, s.store.DismissAlert)
}

func (s *Server) updateAlert(c *fiber.Ctx, apply func(ctx context.Context, userID, id string) error) error {
	id := c.Params("id")
	if err := apply(c.Context(), userID(c), id); err != nil {
		return err
	}

	alert, err := s.store.GetAlertByID(c.Context(), userID(c), id)
	if err != nil {
		return err
	}
	unread, err := s.store.UnreadAlertCount(c.Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"alert":  alert,
		"unread": unread,
	})
}
