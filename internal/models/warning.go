package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WarningType string

const (
	WarningPest    WarningType = "pest"
	WarningDisease WarningType = "disease"
	WarningWeather WarningType = "weather"
	WarningMarket  WarningType = "market"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Warning is a community early-warning event.
type Warning struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Type        WarningType `gorm:"size:20;not null;index" json:"type"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Location    string      `gorm:"size:255;not null" json:"location"`
	Severity    Severity    `gorm:"size:10;not null" json:"severity"`
	ReportedBy  int         `gorm:"not null;default:1" json:"reported_by"`
	Date        time.Time   `json:"date"`
	IsActive    bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (w Warning) RowID() uuid.UUID { return w.ID }

func (w *Warning) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Date.IsZero() {
		w.Date = time.Now().UTC()
	}
	return nil
}
