package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemGroup is a named category that stocks belong to. DisplayOrder drives
// the presentation order of groups in listings.
type ItemGroup struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:text;not null;uniqueIndex"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
