package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/logger"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
)

// dedupeWindow suppresses repeat alerts for the same stock while an unread
// one from this window is still open.
const dedupeWindow = 24 * time.Hour

// Service exposes notification reads and the low-stock sink.
type Service interface {
	NotifyLowStock(ctx context.Context, stockID uuid.UUID, productName string, quantity int)
	List(ctx context.Context, unreadOnly bool, page pagination.Params) (*ListResult, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the notification service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// NotifyLowStock records a low-stock alert. Failures are logged and
// swallowed so the mutation that triggered the alert never fails on it.
func (s *service) NotifyLowStock(ctx context.Context, stockID uuid.UUID, productName string, quantity int) {
	exists, err := s.repo.HasRecentUnread(ctx, stockID, time.Now().UTC().Add(-dedupeWindow))
	if err != nil {
		s.logError(ctx, err, "check existing low stock alert")
		return
	}
	if exists {
		return
	}

	notification := &models.Notification{
		ID:      uuid.New(),
		Type:    enums.NotificationTypeLowStock,
		StockID: &stockID,
		Message: fmt.Sprintf("%s is low on stock (%d left)", productName, quantity),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logError(ctx, err, "create low stock alert")
	}
}

// List returns notifications with the unread badge count.
func (s *service) List(ctx context.Context, unreadOnly bool, page pagination.Params) (*ListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, unreadOnly, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	unread, err := s.repo.CountUnread(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	dtos := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, NotificationDTO{
			ID:        row.ID,
			Type:      row.Type,
			StockID:   row.StockID,
			Message:   row.Message,
			IsRead:    row.IsRead,
			CreatedAt: row.CreatedAt,
		})
	}
	return &ListResult{Notifications: dtos, UnreadCount: unread, NextCursor: nextCursor}, nil
}

// MarkRead flips one notification to read.
func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	updated, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

// MarkAllRead flips every unread notification.
func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}
	return count, nil
}

func (s *service) logError(ctx context.Context, err error, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}
