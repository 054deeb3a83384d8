package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
)

type budgetRequest struct {
	Items []model.BudgetItem `json:"items"`
}

func (s *Server) saveBudgets(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}

	var req budgetRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items must not be empty", common.ErrValidation)
	}

	saved, err := s.budgets.Save(c.Context(), userID(c), month, req.Items)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"month":   model.MonthKey(month),
		"budgets": saved,
	})
}

func (s *Server) getBudgets(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}

	budgets, err := s.store.GetBudgets(c.Context(), userID(c), month)
	if err != nil {
		return err
	}
	if budgets == nil {
		budgets = []model.Budget{}
	}
	return c.JSON(budgets)
}

func (s *Server) compareBudgets(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}

	comparisons, err := s.budgets.Compare(c.Context(), userID(c), month)
	if err != nil {
		return err
	}
	if comparisons == nil {
		comparisons = []model.BudgetComparison{}
	}
	return c.JSON(fiber.Map{
		"month":       model.MonthKey(month),
		"comparisons": comparisons,
	})
}
