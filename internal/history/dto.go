package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
)

// RecordEntryInput captures one ledger movement to append.
type RecordEntryInput struct {
	StockID        uuid.UUID
	QuantityChange int
	Type           enums.TransactionType
	ReferenceID    *uuid.UUID
	Note           *string
	UserID         uuid.UUID
}

// QueryFilters narrows history listings.
type QueryFilters struct {
	StockID *uuid.UUID
	GroupID *uuid.UUID
	Type    *enums.TransactionType
	UserID  *uuid.UUID
	Product string
	Note    string
	From    *time.Time
	To      *time.Time
}

// EntryDTO is the API shape of one history row.
type EntryDTO struct {
	ID             uuid.UUID             `json:"id"`
	StockID        uuid.UUID             `json:"stock_id"`
	ProductName    string                `json:"product_name,omitempty"`
	GroupName      string                `json:"group_name,omitempty"`
	QuantityChange int                   `json:"quantity_change"`
	Type           enums.TransactionType `json:"type"`
	ReferenceID    *uuid.UUID            `json:"reference_id,omitempty"`
	Note           *string               `json:"note,omitempty"`
	UserID         uuid.UUID             `json:"user_id"`
	Username       string                `json:"username,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ListResult wraps a page of history entries.
type ListResult struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
