package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
)

// Notification is an in-app alert, currently only low-stock warnings.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	StockID   *uuid.UUID             `gorm:"column:stock_id;type:uuid;index"`
	Message   string                 `gorm:"column:message;type:text;not null"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime;index"`
}
