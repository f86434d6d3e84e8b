package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/services"
	"github.com/tumbuhin/farmforecast/internal/session"
)

type SessionVerifier interface {
	VerifySession(ctx context.Context, sess *session.Session) (*session.Session, error)
}

// Session turns the validated JWT into a session.Session on the request.
// The user record is confirmed within timeout; when the lookup is slow or
// fails the claims-only session is used instead. A token for a deleted user
// is rejected. Requests without a token pass through without a session.
func Session(verifier SessionVerifier, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return c.Next()
		}

		claims, err := session.FromToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid token claims",
			})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		verified, err := verifier.VerifySession(ctx, claims)
		switch {
		case err == nil:
			session.Set(c, verified)
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: account no longer exists",
			})
		default:
			slog.Warn("session verification degraded",
				"user_id", claims.UserID.String(),
				"request_id", requestID(c),
				"error", err,
			)
			session.Set(c, claims)
		}
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
