package stocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/internal/history"
	"github.com/zaikoworks/zaiko-backend/pkg/config"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/metrics"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// LowStockNotifier receives alerts after a decrement leaves a stock at or
// below the configured threshold. Implementations must not fail the calling
// mutation.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, stockID uuid.UUID, productName string, quantity int)
}

// Adjuster exposes the guarded quantity mutation to other coordinators.
// Orders use it to reserve and restore units inside their own transaction,
// then report the committed result for low-stock alerting.
type Adjuster interface {
	Adjust(ctx context.Context, tx *gorm.DB, stockID uuid.UUID, delta int) (*models.Stock, error)
	MaybeNotifyLowStock(ctx context.Context, stock *models.Stock)
}

// Service exposes stock ledger operations.
type Service interface {
	Adjuster
	RecordInbound(ctx context.Context, userID uuid.UUID, input RecordInboundInput) (*StockDTO, error)
	BulkAdjust(ctx context.Context, userID uuid.UUID, rows []BulkAdjustRow) (*BulkAdjustResult, error)
	EditStock(ctx context.Context, userID, stockID uuid.UUID, input EditStockInput) (*StockDTO, error)
	SoftDeleteStock(ctx context.Context, stockID uuid.UUID) error
	List(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, availableOnly bool) ([]StockDTO, error)
	GetDetail(ctx context.Context, stockID uuid.UUID) (*DetailDTO, error)
	Suppliers(ctx context.Context) ([]string, error)
	Summary(ctx context.Context) (*DashboardSummary, error)
}

type service struct {
	repo      Repository
	dbClient  *db.Client
	histories history.Service
	notifier  LowStockNotifier
	inventory *metrics.InventoryMetrics
	cfg       config.InventoryConfig
}

// NewService wires the stock service.
func NewService(
	repo Repository,
	dbClient *db.Client,
	histories history.Service,
	notifier LowStockNotifier,
	inventory *metrics.InventoryMetrics,
	cfg config.InventoryConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if histories == nil {
		return nil, fmt.Errorf("history service required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		histories: histories,
		notifier:  notifier,
		inventory: inventory,
		cfg:       cfg,
	}, nil
}

// Adjust applies a signed delta inside the caller's transaction. When the
// guarded UPDATE matches no row it distinguishes a missing/deleted stock
// from an overdraw and returns the matching typed error.
func (s *service) Adjust(ctx context.Context, tx *gorm.DB, stockID uuid.UUID, delta int) (*models.Stock, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjustment")
	}
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	repo := s.repo.WithTx(tx)
	applied, err := repo.AdjustQuantity(ctx, stockID, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock quantity")
	}
	if !applied {
		stock, findErr := repo.FindByID(ctx, stockID)
		if findErr != nil || stock.DeletedAt != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
		}
		s.inventory.IncInsufficientStock()
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"stock_id":  stockID,
				"available": stock.Quantity,
				"requested": -delta,
			})
	}

	stock, err := repo.FindByID(ctx, stockID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock after adjustment")
	}
	return stock, nil
}

// RecordInbound receives units of a product, creating the ledger row on
// first receipt. Concurrent first receipts of the same product are resolved
// by the partial unique index: the loser re-reads the winner's row.
func (s *service) RecordInbound(ctx context.Context, userID uuid.UUID, input RecordInboundInput) (*StockDTO, error) {
	if input.GroupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group_id is required")
	}
	productName := strings.TrimSpace(input.ProductName)
	if productName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_name is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var result *models.Stock
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		stock, err := s.findOrCreate(ctx, tx, input.GroupID, productName, input.Supplier)
		if err != nil {
			return err
		}

		adjusted, err := s.Adjust(ctx, tx, stock.ID, input.Quantity)
		if err != nil {
			return err
		}

		if _, err := s.histories.Record(ctx, tx, history.RecordEntryInput{
			StockID:        stock.ID,
			QuantityChange: input.Quantity,
			Type:           enums.TransactionTypeInbound,
			Note:           input.Note,
			UserID:         userID,
		}); err != nil {
			return err
		}

		result = adjusted
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := s.toDTO(result)
	return &dto, nil
}

// BulkAdjust reconciles quantities for many stocks in one call. Each row
// runs in its own transaction so one bad row cannot roll back the rest.
// Rows naming an unknown stock become row errors; rows whose target equals
// the current quantity are skipped without a history entry.
func (s *service) BulkAdjust(ctx context.Context, userID uuid.UUID, rows []BulkAdjustRow) (*BulkAdjustResult, error) {
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no rows provided")
	}

	result := &BulkAdjustResult{}
	var combined error

	for i, row := range rows {
		if err := s.bulkAdjustRow(ctx, userID, row); err != nil {
			if errors.Is(err, errRowSkipped) {
				result.Skipped++
				continue
			}
			result.Failed++
			combined = multierr.Append(combined, fmt.Errorf("row %d (%s): %w", i+1, row.StockID, err))
			continue
		}
		result.Processed++
	}

	maxErrors := s.cfg.BulkAdjustMaxRowErrors
	if maxErrors <= 0 {
		maxErrors = 10
	}
	for i, rowErr := range multierr.Errors(combined) {
		if i >= maxErrors {
			result.OmittedErrors = result.Failed - maxErrors
			break
		}
		result.Errors = append(result.Errors, rowErr.Error())
	}

	if result.Processed == 0 && result.Skipped == 0 && result.Failed > 0 {
		return result, pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "all rows failed").
			WithDetails(result.Errors)
	}
	return result, nil
}

var errRowSkipped = fmt.Errorf("row skipped")

func (s *service) bulkAdjustRow(ctx context.Context, userID uuid.UUID, row BulkAdjustRow) error {
	if row.StockID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock_id is required")
	}
	if row.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	skipped := false
	var adjusted *models.Stock
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stock, err := repo.FindByID(ctx, row.StockID)
		if err != nil || stock.DeletedAt != nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
		}

		delta := row.Quantity - stock.Quantity
		if delta == 0 {
			skipped = true
			return nil
		}

		adjusted, err = s.Adjust(ctx, tx, stock.ID, delta)
		if err != nil {
			return err
		}

		note := "bulk adjustment"
		_, err = s.histories.Record(ctx, tx, history.RecordEntryInput{
			StockID:        stock.ID,
			QuantityChange: delta,
			Type:           enums.TransactionTypeAdjustment,
			Note:           &note,
			UserID:         userID,
		})
		return err
	})
	if err != nil {
		return err
	}
	if skipped {
		return errRowSkipped
	}
	s.MaybeNotifyLowStock(ctx, adjusted)
	return nil
}

// EditStock patches master fields and, when a new quantity is supplied,
// records the difference as an adjustment so the history stays consistent
// with the ledger.
func (s *service) EditStock(ctx context.Context, userID, stockID uuid.UUID, input EditStockInput) (*StockDTO, error) {
	if input.GroupID == nil && input.ProductName == nil && input.Supplier == nil && input.Quantity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no changes provided")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	var result *models.Stock
	decremented := false
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stock, err := repo.FindByID(ctx, stockID)
		if err != nil || stock.DeletedAt != nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
		}

		fields := map[string]any{}
		targetGroup := stock.GroupID
		if input.GroupID != nil && *input.GroupID != stock.GroupID {
			if *input.GroupID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "group_id cannot be empty")
			}
			exists, err := repo.GroupExists(ctx, *input.GroupID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up group")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
			}
			targetGroup = *input.GroupID
			fields["group_id"] = targetGroup
		}

		targetName := stock.ProductName
		if input.ProductName != nil {
			newName := strings.TrimSpace(*input.ProductName)
			if newName == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "product_name cannot be empty")
			}
			if newName != stock.ProductName {
				targetName = newName
				fields["product_name"] = newName
			}
		}
		if targetGroup != stock.GroupID || targetName != stock.ProductName {
			if existing, err := repo.FindLiveByGroupAndName(ctx, targetGroup, targetName); err == nil && existing.ID != stock.ID {
				return pkgerrors.New(pkgerrors.CodeConflict, "product name already in use within group")
			}
		}
		if input.Supplier != nil {
			fields["supplier"] = *input.Supplier
		}
		if len(fields) > 0 {
			if err := repo.UpdateFields(ctx, stockID, fields); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock fields")
			}
		}

		if input.Quantity != nil && *input.Quantity != stock.Quantity {
			delta := *input.Quantity - stock.Quantity
			decremented = delta < 0
			if _, err := s.Adjust(ctx, tx, stockID, delta); err != nil {
				return err
			}
			note := "manual edit"
			if input.Note != nil {
				note = *input.Note
			}
			if _, err := s.histories.Record(ctx, tx, history.RecordEntryInput{
				StockID:        stockID,
				QuantityChange: delta,
				Type:           enums.TransactionTypeAdjustment,
				Note:           &note,
				UserID:         userID,
			}); err != nil {
				return err
			}
		}

		result, err = repo.FindByID(ctx, stockID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if decremented {
		s.MaybeNotifyLowStock(ctx, result)
	}

	dto := s.toDTO(result)
	return &dto, nil
}

// SoftDeleteStock retires a stock row. Stocks with open outbound orders
// cannot be deleted because those orders still hold reserved units.
func (s *service) SoftDeleteStock(ctx context.Context, stockID uuid.UUID) error {
	open, err := s.repo.CountOpenOrders(ctx, stockID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open orders")
	}
	if open > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "stock has open outbound orders").
			WithDetails(map[string]any{"open_orders": open})
	}

	deleted, err := s.repo.SoftDelete(ctx, stockID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete stock")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
	}
	return nil
}

// List returns a filtered page of live stocks.
func (s *service) List(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error) {
	records, nextCursor, err := s.repo.List(ctx, filters, s.lowThreshold(), page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stocks")
	}

	dtos := make([]StockDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, record.toDTO(s.lowThreshold()))
	}
	return &ListResult{Stocks: dtos, NextCursor: nextCursor}, nil
}

// ListByGroup returns live stocks in a group. Outbound order forms ask for
// available stock only.
func (s *service) ListByGroup(ctx context.Context, groupID uuid.UUID, availableOnly bool) ([]StockDTO, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group_id is required")
	}
	rows, err := s.repo.ListByGroup(ctx, groupID, availableOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stocks by group")
	}
	dtos := make([]StockDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, s.toDTO(&rows[i]))
	}
	return dtos, nil
}

// GetDetail returns the stock with its latest movements and the signed sum
// of its full history, which callers can compare against the quantity.
func (s *service) GetDetail(ctx context.Context, stockID uuid.UUID) (*DetailDTO, error) {
	stock, err := s.repo.FindByID(ctx, stockID)
	if err != nil || stock.DeletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
	}

	entries, err := s.histories.RecentForStock(ctx, stockID, 20)
	if err != nil {
		return nil, err
	}

	balance, err := s.histories.BalanceForStock(ctx, stockID)
	if err != nil {
		return nil, err
	}

	return &DetailDTO{Stock: s.toDTO(stock), History: entries, LedgerBalance: balance}, nil
}

// Suppliers returns distinct supplier names for filter dropdowns.
func (s *service) Suppliers(ctx context.Context) ([]string, error) {
	suppliers, err := s.repo.Suppliers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return suppliers, nil
}

// Summary aggregates the dashboard headline counts.
func (s *service) Summary(ctx context.Context) (*DashboardSummary, error) {
	summary, err := s.repo.Summary(ctx, s.lowThreshold())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard summary")
	}
	return summary, nil
}

// MaybeNotifyLowStock emits a low-stock alert when the quantity sits at or
// below the threshold. Call after the mutating transaction commits.
func (s *service) MaybeNotifyLowStock(ctx context.Context, stock *models.Stock) {
	if s.notifier == nil || stock == nil {
		return
	}
	if stock.Quantity > s.lowThreshold() {
		return
	}
	s.inventory.IncLowStockAlert()
	s.notifier.NotifyLowStock(ctx, stock.ID, stock.ProductName, stock.Quantity)
}

func (s *service) findOrCreate(ctx context.Context, tx *gorm.DB, groupID uuid.UUID, productName string, supplier *string) (*models.Stock, error) {
	repo := s.repo.WithTx(tx)

	stock, err := repo.FindLiveByGroupAndName(ctx, groupID, productName)
	if err == nil {
		return stock, nil
	}

	created := &models.Stock{
		ID:          uuid.New(),
		GroupID:     groupID,
		ProductName: productName,
		Quantity:    0,
		Supplier:    supplier,
	}
	if err := repo.Create(ctx, created); err != nil {
		// Lost the race to another creator; their row is the canonical one.
		if db.IsUniqueViolation(err, "idx_stocks_group_product_live") {
			return repo.FindLiveByGroupAndName(ctx, groupID, productName)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock")
	}
	return created, nil
}

func (s *service) lowThreshold() int {
	if s.cfg.LowStockThreshold > 0 {
		return s.cfg.LowStockThreshold
	}
	return 5
}

func (s *service) toDTO(stock *models.Stock) StockDTO {
	dto := StockDTO{
		ID:          stock.ID,
		GroupID:     stock.GroupID,
		ProductName: stock.ProductName,
		Quantity:    stock.Quantity,
		Supplier:    stock.Supplier,
		IsLow:       stock.Quantity <= s.lowThreshold(),
		CreatedAt:   stock.CreatedAt,
		UpdatedAt:   stock.UpdatedAt,
	}
	if stock.Group != nil {
		dto.GroupName = stock.Group.Name
	}
	return dto
}
