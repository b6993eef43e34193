package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Token refresh counter
	RefreshCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_token_refresh_total",
			Help: "Total number of refresh token rotations",
		},
	)

	// QR scan counter by outcome
	ScanCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_scan_total",
			Help: "Total number of QR scans by outcome",
		},
		[]string{"outcome"}, // "granted", "denied", "duplicate", "rejected"
	)

	// Membership renewal counter
	RenewalCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_membership_renewal_total",
			Help: "Total number of membership renewals",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "cross_gym_access" etc.
	)

	// Alert counter by type
	AlertCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_alerts_total",
			Help: "Total number of alerts raised",
		},
		[]string{"type"},
	)

	// Bus event counter by channel
	BusEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_bus_events_total",
			Help: "Total number of events published to the notification bus",
		},
		[]string{"event"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gym_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gym_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tokens
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gym_active_tokens",
			Help: "Number of currently active authentication tokens",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gym_info",
			Help: "Information about the gym service",
		},
		[]string{"version"},
	)

	// Connected bus subscribers
	BusSubscribersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gym_bus_subscribers",
			Help: "Number of currently connected notification subscribers",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(RefreshCounter)
	prometheus.MustRegister(ScanCounter)
	prometheus.MustRegister(RenewalCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AlertCounter)
	prometheus.MustRegister(BusEventCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(BusSubscribersGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// DecreaseActiveTokens decrements the active tokens gauge
func DecreaseActiveTokens() {
	ActiveTokensGauge.Dec()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordScan records a QR scan by outcome
func RecordScan(outcome string) {
	ScanCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordAlert records a raised alert by type
func RecordAlert(alertType string) {
	AlertCounter.With(prometheus.Labels{"type": alertType}).Inc()
}

// RecordBusEvent records a published bus event
func RecordBusEvent(event string) {
	BusEventCounter.With(prometheus.Labels{"event": event}).Inc()
}
