package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/handlers"
	"github.com/tumbuhin/farmforecast/internal/middleware"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Reports    *handlers.ReportHandler
	Warnings   *handlers.WarningHandler
	Prediction *handlers.PredictionHandler
	Community  *handlers.CommunityHandler
	Realtime   *handlers.RealtimeHandler
	Admin      *handlers.AdminHandler
}

func Setup(app *fiber.App, cfg *config.Config, verifier middleware.SessionVerifier, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	sess := middleware.Session(verifier, cfg.SessionTimeout)
	protected := []fiber.Handler{middleware.JWTProtected(cfg), sess}
	optional := []fiber.Handler{middleware.OptionalJWT(cfg), sess}

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet
		},
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", with(protected, h.Auth.Logout)...)
	auth.Get("/session", with(protected, h.Auth.Session)...)
	auth.Get("/events", with(protected, h.Auth.Events)...)

	api.Get("/reports", h.Reports.List)
	api.Post("/reports", with(protected, h.Reports.Submit)...)

	api.Get("/warnings", h.Warnings.List)
	api.Post("/warnings", with(protected, h.Warnings.Submit)...)

	api.Get("/predictions", h.Prediction.List)
	api.Get("/predictions/status", h.Prediction.Status)
	api.Post("/predictions/refresh", with(protected, h.Prediction.Refresh)...)

	api.Get("/stats", h.Community.Stats)
	api.Get("/leaderboard", with(optional, h.Community.Leaderboard)...)
	api.Get("/districts", h.Community.Districts)

	api.Get("/realtime/:collection", h.Realtime.Stream)

	// Admin: session role, configured admin lists, or X-Admin-Token
	admin := api.Group("/admin", with(optional, middleware.AdminRequired(cfg))...)
	admin.Put("/warnings/:id/deactivate", h.Admin.DeactivateWarning)
	admin.Delete("/reports/:id", h.Admin.DeleteReport)
}

func with(chain []fiber.Handler, last fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, last)
}
