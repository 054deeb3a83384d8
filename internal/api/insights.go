package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/insight"
	"github.com/Veraticus/solari/internal/model"
)

const maxSummaryMonths = 36

func (s *Server) generateInsights(c *fiber.Ctx) error {
	alerts, err := s.engine.Generate(c.Context(), userID(c))
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	return c.JSON(fiber.Map{
		"created": len(alerts),
		"alerts":  alerts,
	})
}

func (s *Server) getSummary(c *fiber.Ctx) error {
	months := c.QueryInt("months", 3)
	if months < 1 || months > maxSummaryMonths {
		return fmt.Errorf("%w: months must be between 1 and %d", common.ErrValidation, maxSummaryMonths)
	}

	summary, err := insight.BuildSummary(c.Context(), s.store, userID(c), months)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (s *Server) getAdvice(c *fiber.Ctx) error {
	month := model.MonthStart(time.Now().UTC())
	if raw := c.Query("month"); raw != "" {
		parsed, err := model.ParseMonth(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		month = parsed
	}

	advice, err := s.adviser.Advise(c.Context(), userID(c), month)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"month":  model.MonthKey(month),
		"advice": advice,
	})
}
