package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/prediction"
	"github.com/tumbuhin/farmforecast/internal/services"
	"github.com/tumbuhin/farmforecast/internal/store"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// serviceError maps a service error to its HTTP rendering. Unknown errors are
// logged and hidden behind a generic 500.
func serviceError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error:   true,
			Message: "Validation failed",
			Details: verr.Details,
		})
	case errors.Is(err, services.ErrEmailTaken):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrUnknownCollection):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, prediction.ErrNotEnoughReports):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	slog.Error("request failed",
		"action", c.Method()+" "+c.Route().Path,
		"request_id", requestID(c),
		"error", err.Error(),
	)
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
