package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tumbuhin/farmforecast/internal/services"
	"github.com/tumbuhin/farmforecast/internal/session"
)

type CommunityHandler struct {
	stats       *services.StatsService
	leaderboard *services.LeaderboardService
	districts   *services.DistrictService
}

func NewCommunityHandler(stats *services.StatsService, leaderboard *services.LeaderboardService, districts *services.DistrictService) *CommunityHandler {
	return &CommunityHandler{stats: stats, leaderboard: leaderboard, districts: districts}
}

func (h *CommunityHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.stats.Stats())
}

// Leaderboard includes the caller's own rank when a session is present.
func (h *CommunityHandler) Leaderboard(c *fiber.Ctx) error {
	var viewer *uuid.UUID
	if sess := session.Get(c); sess != nil {
		id := sess.UserID
		viewer = &id
	}
	return c.JSON(h.leaderboard.Leaderboard(viewer))
}

func (h *CommunityHandler) Districts(c *fiber.Ctx) error {
	return c.JSON(h.districts.List())
}
