package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

func (s *Server) listRules(c *fiber.Ctx) error {
	rules, err := s.rules.ListRules(c.Context(), userID(c))
	if err != nil {
		return err
	}
	if rules == nil {
		rules = []model.CategoryRule{}
	}
	return c.JSON(rules)
}

type ruleRequest struct {
	Keyword    string `json:"keyword"`
	CategoryID int64  `json:"category_id"`
}

func (s *Server) createRule(c *fiber.Ctx) error {
	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	rule, err := s.rules.CreateRule(c.Context(), userID(c), req.Keyword, req.CategoryID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

func (s *Server) deleteRule(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.rules.DeleteRule(c.Context(), userID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
