package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tumbuhin/farmforecast/internal/dto"
)

const healthProbeTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	dbPing   func() error
	realtime Pinger
}

func NewHealthHandler(dbPing func() error, realtime Pinger) *HealthHandler {
	return &HealthHandler{dbPing: dbPing, realtime: realtime}
}

// Check reports per-dependency status. The overall status is degraded, not
// failed, when a dependency is down: live collections keep serving cached rows.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Realtime:  "ok",
	}

	if err := h.dbPing(); err != nil {
		resp.DB = "unhealthy: " + err.Error()
		resp.Status = "degraded"
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
	defer cancel()
	if err := h.realtime.Ping(ctx); err != nil {
		resp.Realtime = "unhealthy: " + err.Error()
		resp.Status = "degraded"
	}

	return c.JSON(resp)
}
