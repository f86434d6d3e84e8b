package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tumbuhin/farmforecast/internal/services"
)

type PredictionHandler struct {
	predictions *services.PredictionService
}

func NewPredictionHandler(predictions *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictions: predictions}
}

func (h *PredictionHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.predictions.Predictions())
}

// Status exposes the trigger state, including the fallback note when the
// last analysis used local data.
func (h *PredictionHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.predictions.Status())
}

// Refresh forces a new analysis and answers 202 with the resulting status;
// the analysis itself completes in the background.
func (h *PredictionHandler) Refresh(c *fiber.Ctx) error {
	if err := h.predictions.Refresh(); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(h.predictions.Status())
}
