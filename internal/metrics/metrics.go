package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defi_monitor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "defi_monitor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "defi_monitor",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Collection cycle metrics ───────────────────────────────────────────

var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "defi_monitor",
		Subsystem: "cycle",
		Name:      "total",
		Help:      "Total number of collection cycles run.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "defi_monitor",
		Subsystem: "cycle",
		Name:      "duration_seconds",
		Help:      "Duration of a full collection cycle in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	CycleFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defi_monitor",
		Subsystem: "cycle",
		Name:      "failures_total",
		Help:      "Per-protocol cycle failures by stage.",
	}, []string{"protocol", "stage"})
)

// ── Fetch metrics ──────────────────────────────────────────────────────

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defi_monitor",
		Subsystem: "fetch",
		Name:      "total",
		Help:      "Total fetch attempts per protocol.",
	}, []string{"protocol", "status"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "defi_monitor",
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Duration of metric fetches per protocol in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"protocol"})

	LastSampleTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "defi_monitor",
		Subsystem: "fetch",
		Name:      "last_sample_timestamp",
		Help:      "Unix timestamp of the last persisted sample per protocol.",
	}, []string{"protocol"})
)

// ── Alert metrics ──────────────────────────────────────────────────────

var (
	AlertsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defi_monitor",
		Subsystem: "alerts",
		Name:      "opened_total",
		Help:      "Total alerts opened by the reconciler.",
	}, []string{"protocol", "rule"})

	AlertsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "defi_monitor",
		Subsystem: "alerts",
		Name:      "resolved_total",
		Help:      "Total alerts explicitly resolved.",
	})

	ProtocolTVL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "defi_monitor",
		Subsystem: "protocol",
		Name:      "tvl_usd",
		Help:      "Latest observed TVL per protocol in USD.",
	}, []string{"protocol"})

	ProtocolAPY = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "defi_monitor",
		Subsystem: "protocol",
		Name:      "apy_percent",
		Help:      "Latest observed APY per protocol.",
	}, []string{"protocol"})
)
