package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SoilType string

const (
	SoilClay SoilType = "clay"
	SoilLoam SoilType = "loam"
	SoilSand SoilType = "sand"
	SoilSilt SoilType = "silt"
)

type LandCondition string

const (
	LandWet     LandCondition = "wet"
	LandDry     LandCondition = "dry"
	LandFlooded LandCondition = "flooded"
	LandNormal  LandCondition = "normal"
)

type HarvestCondition string

const (
	HarvestExcellent HarvestCondition = "excellent"
	HarvestGood      HarvestCondition = "good"
	HarvestFair      HarvestCondition = "fair"
	HarvestPoor      HarvestCondition = "poor"
)

// Successful reports whether the harvest counts toward a crop's success ratio.
func (h HarvestCondition) Successful() bool {
	return h == HarvestExcellent || h == HarvestGood
}

// Report is a farmer's land and harvest observation (farm_data).
type Report struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Location             string           `gorm:"size:255;not null" json:"location"`
	District             string           `gorm:"size:255;not null;index" json:"district"`
	SoilType             SoilType         `gorm:"size:20;not null" json:"soil_type"`
	LandCondition        LandCondition    `gorm:"size:20;not null" json:"land_condition"`
	CurrentCrop          string           `gorm:"size:100;not null" json:"current_crop"`
	LastHarvestQuantity  float64          `gorm:"not null" json:"last_harvest_quantity"`
	LastHarvestCondition HarvestCondition `gorm:"size:20;not null" json:"last_harvest_condition"`
	PestIssues           *string          `gorm:"type:text" json:"pest_issues"`
	WeatherCondition     string           `gorm:"size:255;not null" json:"weather_condition"`
	SubmittedAt          time.Time        `json:"submitted_at"`
	CreatedAt            time.Time        `gorm:"index" json:"created_at"`
}

func (Report) TableName() string {
	return "farm_data"
}

func (r Report) RowID() uuid.UUID { return r.ID }

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	return nil
}
