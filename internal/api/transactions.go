package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/solari/internal/common"
	"github.com/Veraticus/solari/internal/model"
	"github.com/Veraticus/solari/internal/service"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func (s *Server) listTransactions(c *fiber.Ctx) error {
	filter := service.TransactionFilter{
		Limit:  c.QueryInt("limit", defaultPageSize),
		Offset: c.QueryInt("offset", 0),
	}
	if filter.Limit < 1 || filter.Limit > maxPageSize {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if raw := c.Query("from"); raw != "" {
		from, err := parseDay(raw, "from")
		if err != nil {
			return err
		}
		filter.StartDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDay(raw, "to")
		if err != nil {
			return err
		}
		filter.EndDate = &to
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: category_id must be an integer", common.ErrValidation)
		}
		filter.CategoryID = &id
	}

	txns, err := s.store.GetTransactions(c.Context(), userID(c), filter)
	if err != nil {
		return err
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	return c.JSON(fiber.Map{"transactions": txns, "count": len(txns)})
}

type importRequest struct {
	Source   string         `json:"source"`
	FileName string         `json:"file_name"`
	Rows     []model.RawRow `json:"rows"`
}

func (s *Server) importTransactions(c *fiber.Ctx) error {
	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if req.Source == "" {
		return fmt.Errorf("%w: source is required", common.ErrValidation)
	}
	if len(req.Rows) == 0 {
		return fmt.Errorf("%w: no rows to import", common.ErrValidation)
	}

	result, err := s.imports.Reconcile(c.Context(), userID(c), req.Source, req.FileName, req.Rows)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

type assignCategoryRequest struct {
	CategoryID *int64 `json:"category_id"`
}

func (s *Server) assignCategory(c *fiber.Ctx) error {
	var req assignCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	txn, err := s.rules.AssignCategory(c.Context(), userID(c), c.Params("id"), req.CategoryID)
	if err != nil {
		return err
	}
	return c.JSON(txn)
}

func parseDay(raw, name string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", common.ErrValidation, name)
	}
	return day, nil
}
