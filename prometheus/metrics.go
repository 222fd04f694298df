package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"phonestore-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Order lifecycle metrics
	OrderOperationsCounter prometheus.CounterVec

	// Payment metrics
	PaymentCallbacksCounter prometheus.CounterVec

	// Inventory metrics
	InventoryOnHandGauge     prometheus.GaugeVec
	StockMovementsCounter    prometheus.CounterVec
	InsufficientStockCounter prometheus.Counter

	initialized bool
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Order lifecycle metrics
	OrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "outcome"},
	)

	// Payment callback metrics
	PaymentCallbacksCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_payment_callbacks_total",
			Help: "Total number of payment gateway callbacks",
		},
		[]string{"kind", "rsp_code"},
	)

	// Inventory metrics
	InventoryOnHandGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_inventory_on_hand",
			Help: "Current on-hand quantity per product variant",
		},
		[]string{"variant_sku"},
	)

	StockMovementsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_movements_total",
			Help: "Total number of stock movements recorded",
		},
		[]string{"type", "ref_kind"},
	)

	InsufficientStockCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_insufficient_stock_total",
			Help: "Total number of operations rejected for insufficient stock",
		},
	)

	initialized = true
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if !initialized {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordOrderOperation increments the counter for order operations
func RecordOrderOperation(operation, outcome string) {
	if !initialized {
		return
	}
	OrderOperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordPaymentCallback increments the counter for gateway callbacks
func RecordPaymentCallback(kind, rspCode string) {
	if !initialized {
		return
	}
	PaymentCallbacksCounter.WithLabelValues(kind, rspCode).Inc()
}

// UpdateInventoryOnHand updates the gauge for a variant's on-hand quantity
func UpdateInventoryOnHand(variantSKU string, onHand float64) {
	if !initialized {
		return
	}
	InventoryOnHandGauge.WithLabelValues(variantSKU).Set(onHand)
}

// RecordStockMovement increments the counter once per recorded movement
func RecordStockMovement(movementType, refKind string) {
	if !initialized {
		return
	}
	StockMovementsCounter.WithLabelValues(movementType, refKind).Inc()
}

// RecordInsufficientStock increments the insufficient-stock rejection counter
func RecordInsufficientStock() {
	if !initialized {
		return
	}
	InsufficientStockCounter.Inc()
}
