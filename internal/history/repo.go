package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists and queries stock history rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.StockHistory) error
	ListRecentByStock(ctx context.Context, stockID uuid.UUID, limit int) ([]models.StockHistory, error)
	Query(ctx context.Context, filters QueryFilters, page pagination.Params) ([]entryRecord, string, error)
	SumByStock(ctx context.Context, stockID uuid.UUID) (int, error)
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

// Create appends one history row. Entries are immutable once written.
func (r *repositoryImpl) Create(ctx context.Context, entry *models.StockHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecentByStock returns the newest entries for a stock, newest first.
func (r *repositoryImpl) ListRecentByStock(ctx context.Context, stockID uuid.UUID, limit int) ([]models.StockHistory, error) {
	var rows []models.StockHistory
	err := r.db.WithContext(ctx).
		Where("stock_id = ?", stockID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

type entryRecord struct {
	ID             uuid.UUID
	StockID        uuid.UUID
	ProductName    sql.NullString
	GroupName      sql.NullString
	QuantityChange int
	Type           string
	ReferenceID    *uuid.UUID
	Note           sql.NullString
	UserID         uuid.UUID
	Username       sql.NullString
	CreatedAt      time.Time
}

func (rec entryRecord) toDTO() EntryDTO {
	dto := EntryDTO{
		ID:             rec.ID,
		StockID:        rec.StockID,
		QuantityChange: rec.QuantityChange,
		Type:           enums.TransactionType(rec.Type),
		ReferenceID:    rec.ReferenceID,
		UserID:         rec.UserID,
		CreatedAt:      rec.CreatedAt,
	}
	if rec.ProductName.Valid {
		dto.ProductName = rec.ProductName.String
	}
	if rec.GroupName.Valid {
		dto.GroupName = rec.GroupName.String
	}
	if rec.Note.Valid {
		note := rec.Note.String
		dto.Note = &note
	}
	if rec.Username.Valid {
		dto.Username = rec.Username.String
	}
	return dto
}

// Query lists history rows with joined stock/group/user labels, newest first,
// using cursor pagination.
func (r *repositoryImpl) Query(ctx context.Context, filters QueryFilters, page pagination.Params) ([]entryRecord, string, error) {
	pageSize := pagination.NormalizeLimit(page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(page.Limit)

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Table("stock_histories h").
		Select("h.id, h.stock_id, s.product_name, g.name AS group_name, h.quantity_change, h.type, h.reference_id, h.note, h.user_id, u.username, h.created_at").
		Joins("LEFT JOIN stocks s ON s.id = h.stock_id").
		Joins("LEFT JOIN item_groups g ON g.id = s.group_id").
		Joins("LEFT JOIN users u ON u.id = h.user_id")

	if filters.StockID != nil {
		qb = qb.Where("h.stock_id = ?", *filters.StockID)
	}
	if filters.GroupID != nil {
		qb = qb.Where("s.group_id = ?", *filters.GroupID)
	}
	if filters.Type != nil {
		qb = qb.Where("h.type = ?", *filters.Type)
	}
	if filters.UserID != nil {
		qb = qb.Where("h.user_id = ?", *filters.UserID)
	}
	if search := strings.TrimSpace(filters.Product); search != "" {
		qb = qb.Where("LOWER(s.product_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if search := strings.TrimSpace(filters.Note); search != "" {
		qb = qb.Where("LOWER(h.note) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if filters.From != nil {
		qb = qb.Where("h.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		qb = qb.Where("h.created_at < ?", *filters.To)
	}

	if cursor != nil {
		qb = qb.Where("(h.created_at < ?) OR (h.created_at = ? AND h.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("h.created_at DESC").Order("h.id DESC").Limit(limitWithBuffer)

	var records []entryRecord
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

// SumByStock returns the signed sum of all movements for a stock. Used to
// cross-check the ledger quantity against its history.
func (r *repositoryImpl) SumByStock(ctx context.Context, stockID uuid.UUID) (int, error) {
	var total sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.StockHistory{}).
		Where("stock_id = ?", stockID).
		Select("SUM(quantity_change)").
		Scan(&total).
		Error
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}
