package stocks

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists stock ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, stock *models.Stock) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Stock, error)
	FindLiveByGroupAndName(ctx context.Context, groupID uuid.UUID, productName string) (*models.Stock, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	List(ctx context.Context, filters ListFilters, lowThreshold int, page pagination.Params) ([]stockRecord, string, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, availableOnly bool) ([]models.Stock, error)
	Suppliers(ctx context.Context) ([]string, error)
	CountOpenOrders(ctx context.Context, stockID uuid.UUID) (int64, error)
	GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error)
	Summary(ctx context.Context, lowThreshold int) (*DashboardSummary, error)
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

// Create inserts a new stock row.
func (r *repositoryImpl) Create(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

// FindByID loads a stock regardless of soft-delete state.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	if err := r.db.WithContext(ctx).Preload("Group").First(&stock, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindLiveByGroupAndName loads the non-deleted row for a product within a group.
func (r *repositoryImpl) FindLiveByGroupAndName(ctx context.Context, groupID uuid.UUID, productName string) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND product_name = ? AND deleted_at IS NULL", groupID, productName).
		First(&stock).
		Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// AdjustQuantity applies a signed delta with a guard that keeps the quantity
// non-negative. Returns false when no row qualified, either because the
// stock is missing/deleted or the delta would overdraw it. The guard in the
// WHERE clause is what makes concurrent decrements safe: two writers racing
// for the last units cannot both match.
func (r *repositoryImpl) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stocks
		SET quantity = quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL AND quantity + ? >= 0
	`, delta, id, delta)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateFields patches the provided columns on a live stock row.
func (r *repositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(fields).
		Error
}

// SoftDelete marks the stock deleted. Returns false when the row was already
// deleted or missing.
func (r *repositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type stockRecord struct {
	ID          uuid.UUID
	GroupID     uuid.UUID
	GroupName   sql.NullString
	ProductName string
	Quantity    int
	Supplier    sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (rec stockRecord) toDTO(lowThreshold int) StockDTO {
	dto := StockDTO{
		ID:          rec.ID,
		GroupID:     rec.GroupID,
		ProductName: rec.ProductName,
		Quantity:    rec.Quantity,
		IsLow:       rec.Quantity <= lowThreshold,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.GroupName.Valid {
		dto.GroupName = rec.GroupName.String
	}
	if rec.Supplier.Valid {
		supplier := rec.Supplier.String
		dto.Supplier = &supplier
	}
	return dto
}

// List returns live stocks with group labels, newest first, using cursor
// pagination.
func (r *repositoryImpl) List(ctx context.Context, filters ListFilters, lowThreshold int, page pagination.Params) ([]stockRecord, string, error) {
	pageSize := pagination.NormalizeLimit(page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(page.Limit)

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Table("stocks s").
		Select("s.id, s.group_id, g.name AS group_name, s.product_name, s.quantity, s.supplier, s.created_at, s.updated_at").
		Joins("LEFT JOIN item_groups g ON g.id = s.group_id").
		Where("s.deleted_at IS NULL")

	if filters.GroupID != nil {
		qb = qb.Where("s.group_id = ?", *filters.GroupID)
	}
	if filters.Supplier != nil {
		qb = qb.Where("s.supplier = ?", *filters.Supplier)
	}
	if filters.LowOnly {
		qb = qb.Where("s.quantity <= ?", lowThreshold)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(s.product_name) LIKE ?", pattern)
	}

	if cursor != nil {
		qb = qb.Where("(s.created_at < ?) OR (s.created_at = ? AND s.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("s.created_at DESC").Order("s.id DESC").Limit(limitWithBuffer)

	var records []stockRecord
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

// ListByGroup returns live stocks in a group, alphabetical. With availableOnly
// set, zero-quantity rows are excluded.
func (r *repositoryImpl) ListByGroup(ctx context.Context, groupID uuid.UUID, availableOnly bool) ([]models.Stock, error) {
	query := r.db.WithContext(ctx).
		Where("group_id = ? AND deleted_at IS NULL", groupID)
	if availableOnly {
		query = query.Where("quantity > 0")
	}

	var rows []models.Stock
	err := query.Order("product_name ASC").Find(&rows).Error
	return rows, err
}

// Suppliers returns the distinct non-empty supplier names across live stocks.
func (r *repositoryImpl) Suppliers(ctx context.Context) ([]string, error) {
	var suppliers []string
	err := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("deleted_at IS NULL AND supplier IS NOT NULL AND supplier <> ''").
		Distinct().
		Order("supplier ASC").
		Pluck("supplier", &suppliers).
		Error
	return suppliers, err
}

// CountOpenOrders counts outbound orders still holding units of this stock.
func (r *repositoryImpl) CountOpenOrders(ctx context.Context, stockID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OutboundOrder{}).
		Where("stock_id = ? AND status <> ?", stockID, "completed").
		Count(&count).
		Error
	return count, err
}

// GroupExists reports whether the item group is present. Used when a stock
// is moved between groups.
func (r *repositoryImpl) GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItemGroup{}).
		Where("id = ?", groupID).
		Count(&count).
		Error
	return count > 0, err
}

// Summary aggregates headline counts over live stocks.
func (r *repositoryImpl) Summary(ctx context.Context, lowThreshold int) (*DashboardSummary, error) {
	type summaryRow struct {
		TotalStocks   int64
		TotalQuantity sql.NullInt64
		LowStockCount int64
	}

	var row summaryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_stocks,
		       SUM(quantity) AS total_quantity,
		       COUNT(*) FILTER (WHERE quantity <= ?) AS low_stock_count
		FROM stocks
		WHERE deleted_at IS NULL
	`, lowThreshold).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	var groupCount int64
	if err := r.db.WithContext(ctx).Model(&models.ItemGroup{}).Count(&groupCount).Error; err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TotalStocks:   row.TotalStocks,
		TotalQuantity: row.TotalQuantity.Int64,
		LowStockCount: row.LowStockCount,
		GroupCount:    groupCount,
	}, nil
}
