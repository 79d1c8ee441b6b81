package groups

import (
	"time"

	"github.com/google/uuid"
)

// GroupDTO is the API shape of one item group.
type GroupDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"display_order"`
	StockCount   int64     `json:"stock_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
