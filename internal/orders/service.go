package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/internal/history"
	"github.com/zaikoworks/zaiko-backend/internal/stocks"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/metrics"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes outbound order operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) error
	Confirm(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Revert(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error)
	Board(ctx context.Context) (*BoardDTO, error)
}

type service struct {
	repo      Repository
	dbClient  *db.Client
	ledger    stocks.Adjuster
	histories history.Recorder
	inventory *metrics.InventoryMetrics
}

// NewService wires the order service.
func NewService(
	repo Repository,
	dbClient *db.Client,
	ledger stocks.Adjuster,
	histories history.Recorder,
	inventory *metrics.InventoryMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if histories == nil {
		return nil, fmt.Errorf("history recorder required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		ledger:    ledger,
		histories: histories,
		inventory: inventory,
	}, nil
}

// Create reserves stock and opens the order in one transaction. If the
// guarded decrement fails the whole operation rolls back, so an order row
// never exists without its units having been taken from the ledger.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if input.StockID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	destination := strings.TrimSpace(input.Destination)
	if destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination is required")
	}

	order := &models.OutboundOrder{
		ID:          uuid.New(),
		StockID:     input.StockID,
		Quantity:    input.Quantity,
		Destination: destination,
		Status:      enums.OrderStatusPending,
		CreatedByID: userID,
	}

	var adjusted *models.Stock
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		stock, err := s.ledger.Adjust(ctx, tx, input.StockID, -input.Quantity)
		if err != nil {
			return err
		}
		adjusted = stock

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert outbound order")
		}

		_, err = s.histories.Record(ctx, tx, history.RecordEntryInput{
			StockID:        input.StockID,
			QuantityChange: -input.Quantity,
			Type:           enums.TransactionTypeOutbound,
			ReferenceID:    &order.ID,
			Note:           &destination,
			UserID:         userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.inventory.IncOrderCreated()
	s.ledger.MaybeNotifyLowStock(ctx, adjusted)

	return s.Get(ctx, order.ID)
}

// Cancel restores the reserved units, writes a cancellation movement, and
// removes the order. Only pending orders can be canceled; once the
// warehouse has confirmed, the order must be reverted first.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be canceled").
				WithDetails(map[string]any{"status": order.Status})
		}

		if _, err := s.ledger.Adjust(ctx, tx, order.StockID, order.Quantity); err != nil {
			return err
		}

		if _, err := s.histories.Record(ctx, tx, history.RecordEntryInput{
			StockID:        order.StockID,
			QuantityChange: order.Quantity,
			Type:           enums.TransactionTypeCancellation,
			ReferenceID:    &order.ID,
			UserID:         userID,
		}); err != nil {
			return err
		}

		return repo.Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}

	s.inventory.IncOrderCanceled()
	return nil
}

// Confirm moves a pending order to warehouse_confirmed.
func (s *service) Confirm(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	now := time.Now().UTC()
	return s.transition(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusWarehouseConfirmed,
		map[string]any{"warehouse_confirmed_at": now})
}

// Complete moves a confirmed order to completed.
func (s *service) Complete(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	now := time.Now().UTC()
	return s.transition(ctx, orderID, enums.OrderStatusWarehouseConfirmed, enums.OrderStatusCompleted,
		map[string]any{"completed_at": now})
}

// Revert steps an order back one stage: completed returns to
// warehouse_confirmed, confirmed returns to pending. Each step clears the
// timestamp the forward transition had set. Pending orders have nothing to
// revert.
func (s *service) Revert(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	switch order.Status {
	case enums.OrderStatusCompleted:
		return s.transition(ctx, orderID, enums.OrderStatusCompleted, enums.OrderStatusWarehouseConfirmed,
			map[string]any{"completed_at": nil})
	case enums.OrderStatusWarehouseConfirmed:
		return s.transition(ctx, orderID, enums.OrderStatusWarehouseConfirmed, enums.OrderStatusPending,
			map[string]any{"warehouse_confirmed_at": nil})
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pending orders cannot be reverted").
			WithDetails(map[string]any{"status": order.Status})
	}
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, fields map[string]any) (*OrderDTO, error) {
	moved, err := s.repo.Transition(ctx, orderID, from, to, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order")
	}
	if !moved {
		order, findErr := s.repo.FindByID(ctx, orderID)
		if findErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, to)).
			WithDetails(map[string]any{"status": order.Status})
	}
	return s.Get(ctx, orderID)
}

// Get returns one order.
func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	dto := OrderDTO{
		ID:                   order.ID,
		StockID:              order.StockID,
		Quantity:             order.Quantity,
		Destination:          order.Destination,
		Status:               order.Status,
		CreatedByID:          order.CreatedByID,
		WarehouseConfirmedAt: order.WarehouseConfirmedAt,
		CompletedAt:          order.CompletedAt,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
	if order.Stock != nil {
		dto.ProductName = order.Stock.ProductName
	}
	return &dto, nil
}

// List returns a filtered page of orders.
func (s *service) List(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *filters.Status))
	}

	records, nextCursor, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	dtos := make([]OrderDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, record.toDTO())
	}
	return &ListResult{Orders: dtos, NextCursor: nextCursor}, nil
}

// Board groups open orders by stage for the warehouse view.
func (s *service) Board(ctx context.Context) (*BoardDTO, error) {
	pending, err := s.repo.ListByStatus(ctx, enums.OrderStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}
	confirmed, err := s.repo.ListByStatus(ctx, enums.OrderStatusWarehouseConfirmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list confirmed orders")
	}
	completed, err := s.repo.ListByStatus(ctx, enums.OrderStatusCompleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list completed orders")
	}

	board := &BoardDTO{
		Pending:   make([]OrderDTO, 0, len(pending)),
		Confirmed: make([]OrderDTO, 0, len(confirmed)),
		Completed: make([]OrderDTO, 0, len(completed)),
	}
	for _, record := range pending {
		board.Pending = append(board.Pending, record.toDTO())
	}
	for _, record := range confirmed {
		board.Confirmed = append(board.Confirmed, record.toDTO())
	}
	for _, record := range completed {
		board.Completed = append(board.Completed, record.toDTO())
	}
	return board, nil
}
