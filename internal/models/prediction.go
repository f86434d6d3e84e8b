package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Suitability string

const (
	SuitabilityHigh   Suitability = "high"
	SuitabilityMedium Suitability = "medium"
	SuitabilityLow    Suitability = "low"
)

// Valid reports whether s is one of the known suitability levels.
func (s Suitability) Valid() bool {
	return s == SuitabilityHigh || s == SuitabilityMedium || s == SuitabilityLow
}

// Prediction is a crop suitability prediction, either persisted from the AI
// or produced locally by the fallback heuristic.
type Prediction struct {
	ID                 uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string      `gorm:"size:100;not null" json:"name"`
	Suitability        Suitability `gorm:"size:10;not null" json:"suitability"`
	EstimatedYield     string      `gorm:"size:100;not null" json:"estimated_yield"`
	Description        string      `gorm:"type:text;not null" json:"description"`
	Icon               string      `gorm:"size:16;not null" json:"icon"`
	District           *string     `gorm:"size:255" json:"district"`
	Season             *string     `gorm:"size:100" json:"season"`
	AccuracyPercentage int         `gorm:"not null;default:0" json:"accuracy_percentage"`
	BasedOnReports     int         `gorm:"not null;default:0" json:"based_on_reports"`
	CreatedAt          time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func (Prediction) TableName() string {
	return "crop_predictions"
}

func (p Prediction) RowID() uuid.UUID { return p.ID }

func (p *Prediction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
