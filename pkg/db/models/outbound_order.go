package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
)

// OutboundOrder reserves stock at creation time: the ledger is decremented
// when the order is created, not when it ships. Status only moves forward
// (pending -> warehouse_confirmed -> completed) except for an explicit
// revert back to pending.
type OutboundOrder struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey"`
	StockID              uuid.UUID         `gorm:"column:stock_id;type:uuid;not null;index"`
	Quantity             int               `gorm:"column:quantity;not null"`
	Destination          string            `gorm:"column:destination;type:text;not null"`
	Status               enums.OrderStatus `gorm:"column:status;type:text;not null;default:pending;index"`
	CreatedByID          uuid.UUID         `gorm:"column:created_by_id;type:uuid;not null"`
	WarehouseConfirmedAt *time.Time        `gorm:"column:warehouse_confirmed_at"`
	CompletedAt          *time.Time        `gorm:"column:completed_at"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Stock     *Stock `gorm:"foreignKey:StockID"`
	CreatedBy *User  `gorm:"foreignKey:CreatedByID"`
}
