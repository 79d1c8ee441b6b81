package enums

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	// NotificationTypeLowStock flags a stock whose quantity dropped to or
	// below the configured threshold.
	NotificationTypeLowStock NotificationType = "low_stock"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	return n == NotificationTypeLowStock
}
