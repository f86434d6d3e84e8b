package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public side of a user. ID equals the User ID.
type Profile struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Location      *string    `gorm:"size:255" json:"location"`
	DistrictID    *uuid.UUID `gorm:"type:uuid" json:"district_id"`
	JoinDate      time.Time  `json:"join_date"`
	Contributions int        `gorm:"not null;default:0" json:"contributions"`
	Rank          int        `gorm:"not null;default:0" json:"rank"`
	AccuracyScore float64    `gorm:"not null;default:0" json:"accuracy_score"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (p Profile) RowID() uuid.UUID { return p.ID }
