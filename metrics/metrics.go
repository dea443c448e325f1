package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexvest",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flexvest",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexvest",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Transactions written or resolved, by type and status.",
		},
		[]string{"type", "status"},
	)

	sweepEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexvest",
			Subsystem: "sweep",
			Name:      "events_total",
			Help:      "Accrual sweep outcomes per fixed-term account.",
		},
		[]string{"event"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "flexvest",
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Duration of full accrual and maturity sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexvest",
			Subsystem: "notify",
			Name:      "dispatched_total",
			Help:      "Notifications dispatched by event type and channel outcome.",
		},
		[]string{"type", "channel", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ledgerTransactions,
		sweepEvents,
		sweepDuration,
		notificationsSent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency keyed by the matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

func RecordTransaction(txType, status string) {
	ledgerTransactions.WithLabelValues(txType, status).Inc()
}

// RecordSweep counts one sweep event: accrued, matured, skipped or failed.
func RecordSweep(event string, n int) {
	if n <= 0 {
		return
	}
	sweepEvents.WithLabelValues(event).Add(float64(n))
}

func ObserveSweep(d time.Duration) {
	sweepDuration.Observe(d.Seconds())
}

func RecordNotification(eventType, channel string, success bool) {
	notificationsSent.WithLabelValues(eventType, channel, strconv.FormatBool(success)).Inc()
}
