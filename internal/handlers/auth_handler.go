package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/services"
	"github.com/tumbuhin/farmforecast/internal/session"
)

type AuthHandler struct {
	authService *services.AuthService
	events      realtime.Subscriber
}

func NewAuthHandler(authService *services.AuthService, events realtime.Subscriber) *AuthHandler {
	return &AuthHandler{authService: authService, events: events}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.authService.Logout(c.UserContext(), userID, &req); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Session returns the caller's user and profile. A slow or failing profile
// lookup still answers 200 with a stub profile and degraded set.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sess := session.Get(c)
	if sess == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(h.authService.Session(c.UserContext(), sess))
}

// Events streams SIGNED_IN and SIGNED_OUT changes for the caller.
func (h *AuthHandler) Events(c *fiber.Ctx) error {
	sess := session.Get(c)
	if sess == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	sub, err := h.events.Subscribe(c.UserContext(), realtime.AuthChannel)
	if err != nil {
		return serviceError(c, err)
	}

	userID := sess.UserID
	return streamChanges(c, sub, func(change realtime.Change) bool {
		var ev services.AuthEvent
		if err := json.Unmarshal(change.Row(), &ev); err != nil {
			return false
		}
		return ev.UserID == userID
	})
}
