package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// SessionResponse is the signed-in user together with their profile.
// Degraded is set when the profile could not be loaded and a stub is shown.
type SessionResponse struct {
	User     UserResponse    `json:"user"`
	Profile  ProfileResponse `json:"profile"`
	Degraded bool            `json:"degraded"`
}

type ProfileResponse struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	DistrictID    *uuid.UUID `json:"district_id"`
	JoinDate      time.Time  `json:"join_date"`
	Contributions int        `json:"contributions"`
	Rank          int        `json:"rank"`
	AccuracyScore float64    `json:"accuracy_score"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Realtime  string `json:"realtime"`
}
