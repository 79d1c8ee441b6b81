package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes item group management.
type Service interface {
	Create(ctx context.Context, name string) (*GroupDTO, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*GroupDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, orderedIDs []uuid.UUID) error
	List(ctx context.Context) ([]GroupDTO, error)
}

type service struct {
	repo     Repository
	dbClient *db.Client
}

// NewService wires the group service.
func NewService(repo Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("group repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// Create adds a group at the end of the display order.
func (s *service) Create(ctx context.Context, name string) (*GroupDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	group := &models.ItemGroup{ID: uuid.New(), Name: name}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		max, err := repo.MaxDisplayOrder(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load display order")
		}
		group.DisplayOrder = max + 1

		if err := repo.Create(ctx, group); err != nil {
			if db.IsUniqueViolation(err, "idx_item_groups_name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "group name already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create group")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &GroupDTO{
		ID:           group.ID,
		Name:         group.Name,
		DisplayOrder: group.DisplayOrder,
		CreatedAt:    group.CreatedAt,
		UpdatedAt:    group.UpdatedAt,
	}, nil
}

// Rename changes the group name, keeping names unique.
func (s *service) Rename(ctx context.Context, id uuid.UUID, name string) (*GroupDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
	}

	if name != group.Name {
		if existing, err := s.repo.FindByName(ctx, name); err == nil && existing.ID != id {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "group name already exists")
		}
		if err := s.repo.UpdateFields(ctx, id, map[string]any{"name": name}); err != nil {
			if db.IsUniqueViolation(err, "idx_item_groups_name") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "group name already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename group")
		}
	}

	renamed, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload group")
	}
	return &GroupDTO{
		ID:           renamed.ID,
		Name:         renamed.Name,
		DisplayOrder: renamed.DisplayOrder,
		CreatedAt:    renamed.CreatedAt,
		UpdatedAt:    renamed.UpdatedAt,
	}, nil
}

// Delete removes a group. Groups still holding live stocks cannot be
// deleted.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
	}

	count, err := s.repo.CountLiveStocks(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count group stocks")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "group still has stocks").
			WithDetails(map[string]any{"stock_count": count})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete group")
	}
	return nil
}

// Reorder rewrites display orders to match the provided ID sequence. The
// sequence may be partial: groups it does not name keep their current
// display order, and unknown IDs are skipped.
func (s *service) Reorder(ctx context.Context, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ordered ids are required")
	}

	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate group id %s", id))
		}
		seen[id] = struct{}{}
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.ListWithCounts(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list groups")
		}
		known := make(map[uuid.UUID]struct{}, len(existing))
		for _, record := range existing {
			known[record.ID] = struct{}{}
		}

		for position, id := range orderedIDs {
			if _, ok := known[id]; !ok {
				continue
			}
			if err := repo.SetDisplayOrder(ctx, id, position); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set display order")
			}
		}
		return nil
	})
}

// List returns all groups in display order with stock counts.
func (s *service) List(ctx context.Context) ([]GroupDTO, error) {
	records, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list groups")
	}
	dtos := make([]GroupDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, record.toDTO())
	}
	return dtos, nil
}
