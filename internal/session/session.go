// Package session carries the authenticated caller on the request context.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const localsKey = "session"

var (
	ErrNoSession     = errors.New("no session on request")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Session is the signed-in caller. Verified is false when the user record
// could not be confirmed in time and only the token claims back the session.
type Session struct {
	UserID   uuid.UUID
	Email    string
	Role     string
	Verified bool
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == "admin"
}

// FromToken builds an unverified session from a parsed JWT.
func FromToken(token *jwt.Token) (*Session, error) {
	if token == nil {
		return nil, ErrInvalidClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidClaims
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidClaims
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &Session{UserID: userID, Email: email, Role: role}, nil
}

func Set(c *fiber.Ctx, s *Session) {
	c.Locals(localsKey, s)
}

// Get returns the session placed by the session middleware, or nil.
func Get(c *fiber.Ctx) *Session {
	s, _ := c.Locals(localsKey).(*Session)
	return s
}

// UserID extracts the caller's id, falling back to the raw JWT when no
// session middleware ran.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	if s := Get(c); s != nil {
		return s.UserID, nil
	}
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, ErrNoSession
	}
	s, err := FromToken(token)
	if err != nil {
		return uuid.Nil, err
	}
	return s.UserID, nil
}
