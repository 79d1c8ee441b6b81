package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
)

// StockHistory is an append-only movement record. QuantityChange is signed:
// positive for inbound/restoring entries, negative for outbound/consuming
// ones. Entries are never updated or deleted once written.
type StockHistory struct {
	ID             uuid.UUID             `gorm:"type:uuid;primaryKey"`
	StockID        uuid.UUID             `gorm:"column:stock_id;type:uuid;not null;index"`
	QuantityChange int                   `gorm:"column:quantity_change;not null"`
	Type           enums.TransactionType `gorm:"column:type;type:text;not null;index"`
	ReferenceID    *uuid.UUID            `gorm:"column:reference_id;type:uuid;index"`
	Note           *string               `gorm:"column:note"`
	UserID         uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime;index"`

	Stock *Stock `gorm:"foreignKey:StockID"`
	User  *User  `gorm:"foreignKey:UserID"`
}
