package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/services"
	"github.com/tumbuhin/farmforecast/internal/session"
)

type AdminHandler struct {
	reports  *services.ReportService
	warnings *services.WarningService
}

func NewAdminHandler(reports *services.ReportService, warnings *services.WarningService) *AdminHandler {
	return &AdminHandler{reports: reports, warnings: warnings}
}

func (h *AdminHandler) DeactivateWarning(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid id")
	}

	warning, err := h.warnings.Deactivate(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	h.audit(c, "deactivate_warning", id)
	return c.JSON(warning)
}

func (h *AdminHandler) DeleteReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid id")
	}

	if err := h.reports.Delete(c.UserContext(), id); err != nil {
		return serviceError(c, err)
	}
	h.audit(c, "delete_report", id)
	return c.JSON(dto.DeleteResponse{ID: id, Message: "Report deleted"})
}

func (h *AdminHandler) audit(c *fiber.Ctx, action string, target uuid.UUID) {
	actor := "admin-token"
	if sess := session.Get(c); sess != nil {
		actor = sess.UserID.String()
	}
	slog.Info("admin action",
		"action", action,
		"target_id", target.String(),
		"user_id", actor,
		"request_id", requestID(c),
	)
}
