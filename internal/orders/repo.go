package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists outbound orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.OutboundOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OutboundOrder, error)
	Transition(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, fields map[string]any) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters ListFilters, page pagination.Params) ([]orderRecord, string, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]orderRecord, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	return &repositoryImpl{db: tx}
}

// Create inserts a new order row.
func (r *repositoryImpl) Create(ctx context.Context, order *models.OutboundOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads one order.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.OutboundOrder, error) {
	var order models.OutboundOrder
	if err := r.db.WithContext(ctx).Preload("Stock").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Transition moves the order from one status to another. The WHERE clause
// pins the current status so two operators acting on the same order cannot
// both win; returns false when no row matched.
func (r *repositoryImpl) Transition(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for column, value := range fields {
		updates[column] = value
	}

	res := r.db.WithContext(ctx).
		Model(&models.OutboundOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the order row. Only used by cancellation, after the
// reserved units have been restored in the same transaction.
func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OutboundOrder{}).Error
}

type orderRecord struct {
	ID                   uuid.UUID
	StockID              uuid.UUID
	ProductName          sql.NullString
	GroupName            sql.NullString
	Quantity             int
	Destination          string
	Status               string
	CreatedByID          uuid.UUID
	CreatedByName        sql.NullString
	WarehouseConfirmedAt *time.Time
	CompletedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (rec orderRecord) toDTO() OrderDTO {
	dto := OrderDTO{
		ID:                   rec.ID,
		StockID:              rec.StockID,
		Quantity:             rec.Quantity,
		Destination:          rec.Destination,
		Status:               enums.OrderStatus(rec.Status),
		CreatedByID:          rec.CreatedByID,
		WarehouseConfirmedAt: rec.WarehouseConfirmedAt,
		CompletedAt:          rec.CompletedAt,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}
	if rec.ProductName.Valid {
		dto.ProductName = rec.ProductName.String
	}
	if rec.GroupName.Valid {
		dto.GroupName = rec.GroupName.String
	}
	if rec.CreatedByName.Valid {
		dto.CreatedByName = rec.CreatedByName.String
	}
	return dto
}

const orderSelect = "o.id, o.stock_id, s.product_name, g.name AS group_name, o.quantity, o.destination, o.status, o.created_by_id, u.username AS created_by_name, o.warehouse_confirmed_at, o.completed_at, o.created_at, o.updated_at"

func (r *repositoryImpl) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("outbound_orders o").
		Select(orderSelect).
		Joins("LEFT JOIN stocks s ON s.id = o.stock_id").
		Joins("LEFT JOIN item_groups g ON g.id = s.group_id").
		Joins("LEFT JOIN users u ON u.id = o.created_by_id")
}

// List returns a filtered page of orders, newest first.
func (r *repositoryImpl) List(ctx context.Context, filters ListFilters, page pagination.Params) ([]orderRecord, string, error) {
	pageSize := pagination.NormalizeLimit(page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(page.Limit)

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.baseQuery(ctx)
	if filters.Status != nil {
		qb = qb.Where("o.status = ?", *filters.Status)
	}
	if filters.StockID != nil {
		qb = qb.Where("o.stock_id = ?", *filters.StockID)
	}
	if cursor != nil {
		qb = qb.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("o.created_at DESC").Order("o.id DESC").Limit(limitWithBuffer)

	var records []orderRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(records) > pageSize {
		records = records[:pageSize]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return records, nextCursor, nil
}

// Pending orders surface oldest first so the queue is worked in arrival
// order; confirmed and completed columns show the latest activity on top.
var boardOrdering = map[enums.OrderStatus]string{
	enums.OrderStatusPending:            "o.created_at ASC",
	enums.OrderStatusWarehouseConfirmed: "o.warehouse_confirmed_at DESC",
	enums.OrderStatusCompleted:          "o.completed_at DESC",
}

// ListByStatus returns all orders in one stage for the warehouse board.
func (r *repositoryImpl) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]orderRecord, error) {
	ordering, ok := boardOrdering[status]
	if !ok {
		ordering = "o.created_at ASC"
	}

	var records []orderRecord
	err := r.baseQuery(ctx).
		Where("o.status = ?", status).
		Order(ordering).
		Scan(&records).
		Error
	return records, err
}
