package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics records counters for ledger mutations and order flow.
type InventoryMetrics struct {
	movements         *prometheus.CounterVec
	insufficientStock prometheus.Counter
	ordersCreated     prometheus.Counter
	ordersCanceled    prometheus.Counter
	lowStockAlerts    prometheus.Counter
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock history entries recorded, by transaction type.",
	}, []string{"type"})
	insufficientStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_insufficient_total",
		Help: "Mutations rejected because quantity would have gone negative.",
	})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbound_orders_created_total",
		Help: "Outbound orders created.",
	})
	ordersCanceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbound_orders_canceled_total",
		Help: "Outbound orders canceled with stock restored.",
	})
	lowStockAlerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Low stock notifications emitted.",
	})
	reg.MustRegister(movements, insufficientStock, ordersCreated, ordersCanceled, lowStockAlerts)
	return &InventoryMetrics{
		movements:         movements,
		insufficientStock: insufficientStock,
		ordersCreated:     ordersCreated,
		ordersCanceled:    ordersCanceled,
		lowStockAlerts:    lowStockAlerts,
	}
}

// IncMovement increments the movement counter for the given transaction type.
func (m *InventoryMetrics) IncMovement(transactionType string) {
	if m == nil || m.movements == nil {
		return
	}
	if transactionType == "" {
		transactionType = "unknown"
	}
	m.movements.WithLabelValues(transactionType).Inc()
}

// IncInsufficientStock increments the rejected-mutation counter.
func (m *InventoryMetrics) IncInsufficientStock() {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.Inc()
}

// IncOrderCreated increments the created-order counter.
func (m *InventoryMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncOrderCanceled increments the canceled-order counter.
func (m *InventoryMetrics) IncOrderCanceled() {
	if m == nil || m.ordersCanceled == nil {
		return
	}
	m.ordersCanceled.Inc()
}

// IncLowStockAlert increments the low-stock notification counter.
func (m *InventoryMetrics) IncLowStockAlert() {
	if m == nil || m.lowStockAlerts == nil {
		return
	}
	m.lowStockAlerts.Inc()
}
