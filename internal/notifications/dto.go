package notifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
)

// NotificationDTO is the API shape of one notification.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	StockID   *uuid.UUID             `json:"stock_id,omitempty"`
	Message   string                 `json:"message"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

// ListResult wraps a page of notifications.
type ListResult struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int64             `json:"unread_count"`
	NextCursor    string            `json:"next_cursor,omitempty"`
}
