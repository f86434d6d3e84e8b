package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/services"
	"github.com/tumbuhin/farmforecast/internal/session"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// List returns the live farm report collection, newest first.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.reports.List())
}

func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.reports.Submit(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}
