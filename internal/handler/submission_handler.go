package handler

import (
	"strconv"
	"time"

	"go-pos-terminal/internal/model"
	"go-pos-terminal/internal/repository"
	"go-pos-terminal/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SubmissionHandler struct {
	service service.TerminalService
}

func NewSubmissionHandler(s service.TerminalService) *SubmissionHandler {
	return &SubmissionHandler{service: s}
}

// GetSubmissions lists journaled pay attempts, newest first
// Query params: cashier, status, limit (default 100)
func (h *SubmissionHandler) GetSubmissions(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	records, err := h.service.Submissions(repository.SubmissionFilter{
		Cashier: c.Query("cashier"),
		Status:  model.SubmissionStatus(c.Query("status")),
		Limit:   limit,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch submissions"})
	}

	return c.JSON(fiber.Map{"data": records})
}

// GetSummary totals accepted and failed sales
// Query params: days (default 1)
func (h *SubmissionHandler) GetSummary(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "1"))
	if err != nil || days <= 0 {
		days = 1
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	summary, err := h.service.Summary(start, end)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch summary"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   summary,
	})
}
