package groups

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists item groups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, group *models.ItemGroup) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ItemGroup, error)
	FindByName(ctx context.Context, name string) (*models.ItemGroup, error)
	MaxDisplayOrder(ctx context.Context) (int, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	SetDisplayOrder(ctx context.Context, id uuid.UUID, order int) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountLiveStocks(ctx context.Context, id uuid.UUID) (int64, error)
	ListWithCounts(ctx context.Context) ([]groupRecord, error)
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

func (r *repositoryImpl) Create(ctx context.Context, group *models.ItemGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.ItemGroup, error) {
	var group models.ItemGroup
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repositoryImpl) FindByName(ctx context.Context, name string) (*models.ItemGroup, error) {
	var group models.ItemGroup
	if err := r.db.WithContext(ctx).First(&group, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// MaxDisplayOrder returns the highest display order, or -1 with no groups.
func (r *repositoryImpl) MaxDisplayOrder(ctx context.Context) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.ItemGroup{}).
		Select("MAX(display_order)").
		Scan(&max).
		Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (r *repositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ItemGroup{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}

func (r *repositoryImpl) SetDisplayOrder(ctx context.Context, id uuid.UUID, order int) error {
	return r.db.WithContext(ctx).
		Model(&models.ItemGroup{}).
		Where("id = ?", id).
		UpdateColumn("display_order", order).
		Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ItemGroup{}).Error
}

// CountLiveStocks counts non-deleted stocks attached to the group.
func (r *repositoryImpl) CountLiveStocks(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("group_id = ? AND deleted_at IS NULL", id).
		Count(&count).
		Error
	return count, err
}

type groupRecord struct {
	ID           uuid.UUID
	Name         string
	DisplayOrder int
	StockCount   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (rec groupRecord) toDTO() GroupDTO {
	return GroupDTO{
		ID:           rec.ID,
		Name:         rec.Name,
		DisplayOrder: rec.DisplayOrder,
		StockCount:   rec.StockCount,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// ListWithCounts returns all groups in display order with live stock counts.
func (r *repositoryImpl) ListWithCounts(ctx context.Context) ([]groupRecord, error) {
	var records []groupRecord
	err := r.db.WithContext(ctx).
		Table("item_groups g").
		Select("g.id, g.name, g.display_order, COUNT(s.id) AS stock_count, g.created_at, g.updated_at").
		Joins("LEFT JOIN stocks s ON s.group_id = g.id AND s.deleted_at IS NULL").
		Group("g.id, g.name, g.display_order, g.created_at, g.updated_at").
		Order("g.display_order ASC").
		Order("g.name ASC").
		Scan(&records).
		Error
	return records, err
}
