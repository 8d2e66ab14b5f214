package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "user_role"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Ledger metrics
	ledgerTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Total number of ledger transactions by type and status",
		},
		[]string{"type", "status"},
	)

	ledgerTransactionAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_transaction_amount_rupees",
			Help:    "Ledger transaction amount in rupees",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"type"},
	)

	// Investment metrics
	investmentPurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investment_purchases_total",
			Help: "Total number of plan purchases by plan and outcome",
		},
		[]string{"plan_id", "outcome"},
	)

	accrualCreditsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accrual_credits_total",
			Help: "Total number of daily-return credit events",
		},
	)

	accrualAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accrual_amount_rupees_total",
			Help: "Total rupees credited through daily-return accrual",
		},
	)

	// Referral metrics
	referralResolutionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_resolutions_total",
			Help: "Total number of referral team resolutions",
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// Queue metrics
	queueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_size",
			Help: "Current queue size",
		},
		[]string{"queue_name"},
	)

	// Application metrics
	systemErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "component"},
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, endpoint, statusCode, userRole string, duration float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, userRole).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration)
}

// RecordLedgerTransaction records a ledger row reaching the given status
func RecordLedgerTransaction(txnType, status string, amount int64) {
	ledgerTransactionsTotal.WithLabelValues(txnType, status).Inc()
	ledgerTransactionAmount.WithLabelValues(txnType).Observe(float64(amount))
}

// RecordPurchase records a plan purchase attempt outcome
func RecordPurchase(planID, outcome string) {
	investmentPurchasesTotal.WithLabelValues(planID, outcome).Inc()
}

// RecordAccrual records credited daily returns
func RecordAccrual(days int, amount int64) {
	accrualCreditsTotal.Add(float64(days))
	accrualAmountTotal.Add(float64(amount))
}

// RecordReferralResolution counts a team resolution
func RecordReferralResolution() {
	referralResolutionsTotal.Inc()
}

// RecordDBQuery records query latency
func RecordDBQuery(operation, table string, duration float64) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// SetQueueSize publishes the current queue depth
func SetQueueSize(queueName string, size float64) {
	queueSize.WithLabelValues(queueName).Set(size)
}

// RecordSystemError counts an unexpected failure
func RecordSystemError(errorType, component string) {
	systemErrorsTotal.WithLabelValues(errorType, component).Inc()
}
