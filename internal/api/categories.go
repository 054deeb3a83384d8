package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

func (s *Server) listCategories(c *fiber.Ctx) error {
	categories, err := s.store.GetCategories(c.Context(), userID(c))
	if err != nil {
		return err
	}
	tree := model.BuildCategoryTree(categories)
	if tree == nil {
		tree = []*model.CategoryNode{}
	}
	return c.JSON(tree)
}

type categoryRequest struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	ParentID *int64 `json:"parent_id"`
	IsIncome bool   `json:"is_income"`
}

func (s *Server) createCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}

	category, err := s.store.CreateCategory(c.Context(), userID(c), service.CategoryParams{
		Name:     req.Name,
		Color:    req.Color,
		ParentID: req.ParentID,
		IsIncome: req.IsIncome,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (s *Server) deleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteCategory(c.Context(), userID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
