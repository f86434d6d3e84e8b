package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type District struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Province  string    `gorm:"size:255;not null" json:"province"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (d District) RowID() uuid.UUID { return d.ID }

func (d *District) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
