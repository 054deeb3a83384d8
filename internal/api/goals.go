package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

func (s *Server) listGoals(c *fiber.Ctx) error {
	goals, err := s.store.GetGoals(c.Context(), userID(c))
	if err != nil {
		return err
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	return c.JSON(goals)
}

type goalRequest struct {
	Name         string  `json:"name"`
	TargetAmount float64 `json:"target_amount"`
}

func (s *Server) saveGoal(c *fiber.Ctx) error {
	var req goalRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: goal name must not be empty", common.ErrValidation)
	}

	goal, err := s.store.UpsertGoal(c.Context(), userID(c), req.Name, req.TargetAmount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (s *Server) deleteGoal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteGoal(c.Context(), userID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
