package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/metrics"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Recorder appends ledger movements. Coordinators call it inside the same
// transaction that mutates the stock row.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.StockHistory, error)
}

// Service exposes history reads and the transactional recorder.
type Service interface {
	Recorder
	Query(ctx context.Context, filters QueryFilters, page pagination.Params) (*ListResult, error)
	RecentForStock(ctx context.Context, stockID uuid.UUID, limit int) ([]EntryDTO, error)
	BalanceForStock(ctx context.Context, stockID uuid.UUID) (int, error)
}

type service struct {
	repo      Repository
	dbClient  *db.Client
	inventory *metrics.InventoryMetrics
}

// NewService wires the history service.
func NewService(repo Repository, dbClient *db.Client, inventory *metrics.InventoryMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, inventory: inventory}, nil
}

// Record validates and appends one history entry inside the caller's
// transaction. A zero quantity change is rejected: every entry must describe
// an actual movement.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.StockHistory, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for history record")
	}
	if input.StockID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_id is required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	if input.QuantityChange == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_change must be non-zero")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}

	entry := &models.StockHistory{
		ID:             uuid.New(),
		StockID:        input.StockID,
		QuantityChange: input.QuantityChange,
		Type:           input.Type,
		ReferenceID:    input.ReferenceID,
		Note:           input.Note,
		UserID:         input.UserID,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert history entry")
	}

	s.inventory.IncMovement(input.Type.String())
	return entry, nil
}

// Query returns a filtered page of history entries, newest first.
func (s *service) Query(ctx context.Context, filters QueryFilters, page pagination.Params) (*ListResult, error) {
	records, nextCursor, err := s.repo.Query(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query history")
	}

	entries := make([]EntryDTO, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.toDTO())
	}
	return &ListResult{Entries: entries, NextCursor: nextCursor}, nil
}

// RecentForStock returns the newest movements for one stock.
func (s *service) RecentForStock(ctx context.Context, stockID uuid.UUID, limit int) ([]EntryDTO, error) {
	if stockID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.repo.ListRecentByStock(ctx, stockID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent history")
	}

	entries := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, EntryDTO{
			ID:             row.ID,
			StockID:        row.StockID,
			QuantityChange: row.QuantityChange,
			Type:           row.Type,
			ReferenceID:    row.ReferenceID,
			Note:           row.Note,
			UserID:         row.UserID,
			CreatedAt:      row.CreatedAt,
		})
	}
	return entries, nil
}

// BalanceForStock sums all movements for one stock. Because every quantity
// mutation writes its entry in the same transaction, the result equals the
// ledger quantity.
func (s *service) BalanceForStock(ctx context.Context, stockID uuid.UUID) (int, error) {
	if stockID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "stock_id is required")
	}
	total, err := s.repo.SumByStock(ctx, stockID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum stock history")
	}
	return total, nil
}
