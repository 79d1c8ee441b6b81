package stocks

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/internal/history"
)

// StockDTO is the API shape of one ledger row.
type StockDTO struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	GroupName   string    `json:"group_name,omitempty"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Supplier    *string   `json:"supplier,omitempty"`
	IsLow       bool      `json:"is_low"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecordInboundInput captures an inbound receipt. The stock row is created
// on first receipt of a product name within a group.
type RecordInboundInput struct {
	GroupID     uuid.UUID
	ProductName string
	Quantity    int
	Supplier    *string
	Note        *string
}

// EditStockInput updates stock master fields. A non-nil Quantity sets the
// on-hand count to the given value and records the delta as an adjustment.
// A non-nil GroupID moves the stock into another group.
type EditStockInput struct {
	GroupID     *uuid.UUID
	ProductName *string
	Supplier    *string
	Quantity    *int
	Note        *string
}

// BulkAdjustRow is one row of a bulk quantity reconciliation. Quantity is
// the target on-hand count, not a delta.
type BulkAdjustRow struct {
	StockID  uuid.UUID
	Quantity int
}

// BulkAdjustResult summarizes a bulk reconciliation run.
type BulkAdjustResult struct {
	Processed     int      `json:"processed"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
	OmittedErrors int      `json:"omitted_errors,omitempty"`
}

// ListFilters narrows stock listings.
type ListFilters struct {
	GroupID  *uuid.UUID
	Query    string
	Supplier *string
	LowOnly  bool
}

// ListResult wraps a page of stocks.
type ListResult struct {
	Stocks     []StockDTO `json:"stocks"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// DetailDTO pairs a stock with its recent movements. LedgerBalance is the
// signed sum of the full history and should always equal the quantity.
type DetailDTO struct {
	Stock         StockDTO           `json:"stock"`
	History       []history.EntryDTO `json:"history"`
	LedgerBalance int                `json:"ledger_balance"`
}

// DashboardSummary aggregates headline counts for the landing view.
type DashboardSummary struct {
	TotalStocks   int64 `json:"total_stocks"`
	TotalQuantity int64 `json:"total_quantity"`
	LowStockCount int64 `json:"low_stock_count"`
	GroupCount    int64 `json:"group_count"`
}
