package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock is one ledger row: the current on-hand quantity of a product within
// a group. Quantity never goes negative; every mutation happens through a
// guarded UPDATE so concurrent writers cannot both spend the same units.
// Rows are soft-deleted: DeletedAt is set instead of removing the row so
// history entries keep a valid parent.
type Stock struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GroupID     uuid.UUID  `gorm:"column:group_id;type:uuid;not null;index"`
	ProductName string     `gorm:"column:product_name;type:text;not null"`
	Quantity    int        `gorm:"column:quantity;not null;default:0"`
	Supplier    *string    `gorm:"column:supplier"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Group *ItemGroup `gorm:"foreignKey:GroupID"`
}
