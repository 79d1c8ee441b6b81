package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
)

// CreateOrderInput captures a new outbound request. Stock is reserved at
// creation: the ledger is decremented before the order row exists.
type CreateOrderInput struct {
	StockID     uuid.UUID
	Quantity    int
	Destination string
}

// OrderDTO is the API shape of one outbound order.
type OrderDTO struct {
	ID                   uuid.UUID         `json:"id"`
	StockID              uuid.UUID         `json:"stock_id"`
	ProductName          string            `json:"product_name,omitempty"`
	GroupName            string            `json:"group_name,omitempty"`
	Quantity             int               `json:"quantity"`
	Destination          string            `json:"destination"`
	Status               enums.OrderStatus `json:"status"`
	CreatedByID          uuid.UUID         `json:"created_by_id"`
	CreatedByName        string            `json:"created_by_name,omitempty"`
	WarehouseConfirmedAt *time.Time        `json:"warehouse_confirmed_at,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status  *enums.OrderStatus
	StockID *uuid.UUID
}

// ListResult wraps a page of orders.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// BoardDTO groups orders by stage for the warehouse view.
type BoardDTO struct {
	Pending   []OrderDTO `json:"pending"`
	Confirmed []OrderDTO `json:"confirmed"`
	Completed []OrderDTO `json:"completed"`
}
