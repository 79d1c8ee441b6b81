package enums

import "fmt"

// OrderStatus tracks the lifecycle of an outbound order.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusWarehouseConfirmed OrderStatus = "warehouse_confirmed"
	OrderStatusCompleted          OrderStatus = "completed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusWarehouseConfirmed,
	OrderStatusCompleted,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// CanTransitionTo reports whether the forward transition from o to next is
// allowed. Orders only move pending -> warehouse_confirmed -> completed.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch o {
	case OrderStatusPending:
		return next == OrderStatusWarehouseConfirmed
	case OrderStatusWarehouseConfirmed:
		return next == OrderStatusCompleted
	default:
		return false
	}
}
