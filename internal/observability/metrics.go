package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manifestd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "manifestd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "manifestd",
			Subsystem: "query",
			Name:      "sessions_active",
			Help:      "Query sessions currently open.",
		},
	)
	sessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manifestd",
			Subsystem: "query",
			Name:      "sessions_closed_total",
			Help:      "Query sessions closed, by outcome.",
		},
		[]string{"outcome"},
	)
	queryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manifestd",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Nodepath requests, by result.",
		},
		[]string{"result"},
	)
	queryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "manifestd",
			Subsystem: "query",
			Name:      "request_duration_seconds",
			Help:      "Time from request receipt to end of response.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	queryValues = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "manifestd",
			Subsystem: "query",
			Name:      "values_sent_total",
			Help:      "Result values streamed to clients.",
		},
	)
	validateEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manifestd",
			Subsystem: "validate",
			Name:      "evaluations_total",
			Help:      "Predicate evaluations, by predicate and result.",
		},
		[]string{"predicate", "result"},
	)
	manifestReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manifestd",
			Subsystem: "manifest",
			Name:      "reloads_total",
			Help:      "Manifest reload attempts, by result.",
		},
		[]string{"result"},
	)
)

// Query request results.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Session outcomes.
const (
	OutcomeTerminated = "terminated"
	OutcomeDropped    = "dropped"
	OutcomeViolation  = "violation"
	OutcomeIOError    = "io_error"
	OutcomeRejected   = "rejected"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			sessionsActive,
			sessionsClosed,
			queryRequests,
			queryDuration,
			queryValues,
			validateEvaluations,
			manifestReloads,
		)
	})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

func SessionOpened() {
	RegisterMetrics()
	sessionsActive.Inc()
}

func SessionClosed(outcome string) {
	RegisterMetrics()
	sessionsActive.Dec()
	sessionsClosed.WithLabelValues(outcome).Inc()
}

// SessionRejected counts a connection refused before its session started.
func SessionRejected() {
	RegisterMetrics()
	sessionsClosed.WithLabelValues(OutcomeRejected).Inc()
}

func RecordQuery(result string, values int, duration time.Duration) {
	RegisterMetrics()
	queryRequests.WithLabelValues(result).Inc()
	queryDuration.Observe(duration.Seconds())
	if values > 0 {
		queryValues.Add(float64(values))
	}
}

func RecordEvaluation(predicate string, ok bool) {
	RegisterMetrics()
	validateEvaluations.WithLabelValues(predicate, strconv.FormatBool(ok)).Inc()
}

func RecordReload(ok bool) {
	RegisterMetrics()
	result := "ok"
	if !ok {
		result = "error"
	}
	manifestReloads.WithLabelValues(result).Inc()
}
