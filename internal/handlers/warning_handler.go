package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/services"
	"github.com/tumbuhin/farmforecast/internal/session"
)

type WarningHandler struct {
	warnings *services.WarningService
}

func NewWarningHandler(warnings *services.WarningService) *WarningHandler {
	return &WarningHandler{warnings: warnings}
}

// List returns warnings newest first, optionally filtered by ?type= and ?severity=.
func (h *WarningHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.warnings.List(services.WarningFilter{
		Type:     models.WarningType(c.Query("type")),
		Severity: models.Severity(c.Query("severity")),
	}))
}

func (h *WarningHandler) Submit(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SubmitWarningRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	warning, err := h.warnings.Submit(c.UserContext(), userID, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(warning)
}
