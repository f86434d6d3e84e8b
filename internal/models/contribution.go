package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContributionType string

const (
	ContributionFarmData           ContributionType = "farm_data"
	ContributionWarningReport      ContributionType = "warning_report"
	ContributionPredictionFeedback ContributionType = "prediction_feedback"
)

// Contribution is an append-only point award ledger row.
type Contribution struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        ContributionType `gorm:"size:30;not null" json:"type"`
	Points      int              `gorm:"not null;default:0" json:"points"`
	Description *string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

func (c Contribution) RowID() uuid.UUID { return c.ID }

func (c *Contribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
