package prometheus

import (
	"backoffice-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Order lifecycle metrics
	StatusTransitionsCounter prometheus.CounterVec
	OrderOperationsCounter   prometheus.CounterVec

	// Stock metrics
	StockMovementsCounter      prometheus.CounterVec
	InsufficientStockCounter   prometheus.Counter
	ConcurrentStockConflicts   prometheus.Counter
	ProductOperationsCounter   prometheus.CounterVec

	// External collaborator metrics
	CourierCallsCounter   prometheus.CounterVec
	CourierErrorsCounter  prometheus.CounterVec
	InvoicesIssuedCounter prometheus.Counter

	// Catalog sync metrics
	SyncRunsCounter     prometheus.Counter
	SyncWarningsCounter prometheus.Counter
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

	// Order lifecycle metrics
	StatusTransitionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_status_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"to_status"},
	)

	OrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation"},
	)

	// Stock metrics
	StockMovementsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_movements_total",
			Help: "Total number of stock movements applied",
		},
		[]string{"type"},
	)

	InsufficientStockCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_insufficient_stock_total",
			Help: "Total number of reservations that exceeded availability",
		},
	)

	ConcurrentStockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_concurrent_stock_conflicts_total",
			Help: "Total number of stock writes rejected by the optimistic check",
		},
	)

	ProductOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	// External collaborator metrics
	CourierCallsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_courier_calls_total",
			Help: "Total number of courier gateway calls",
		},
		[]string{"courier", "operation"},
	)

	CourierErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_courier_errors_total",
			Help: "Total number of failed courier gateway calls",
		},
		[]string{"courier", "operation"},
	)

	InvoicesIssuedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invoices_issued_total",
			Help: "Total number of invoices issued",
		},
	)

	// Catalog sync metrics
	SyncRunsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_catalog_sync_runs_total",
			Help: "Total number of catalog sync runs",
		},
	)

	SyncWarningsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_catalog_sync_warnings_total",
			Help: "Total number of catalog sync warnings",
		},
	)
}
