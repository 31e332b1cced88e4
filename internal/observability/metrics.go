package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "gymcore"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	policyDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "policy",
		Name:      "denials_total",
		Help:      "Policy denials by resource kind and action.",
	}, []string{"kind", "action"})

	pointAdjustments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "points",
		Name:      "adjustments_total",
		Help:      "Committed point adjustments by source.",
	}, []string{"source"})

	pointsDelta = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "points",
		Name:      "delta_abs_total",
		Help:      "Absolute points moved by source.",
	}, []string{"source"})

	invariantViolations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "points",
		Name:      "invariant_violations_total",
		Help:      "Users whose cached total did not match the ledger.",
	})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "leaderboard_lookups_total",
		Help:      "Leaderboard cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	pointsSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "points_subscribers",
		Help:      "Open websocket connections on the points feed.",
	})
)

func init() {
	prometheus.MustRegister(
		httpRequests, httpDuration, policyDenials,
		pointAdjustments, pointsDelta, invariantViolations,
		cacheLookups, pointsSubscribers,
	)
	// The default registry already carries the process and Go collectors;
	// register build info so dashboards can track deploys.
	prometheus.MustRegister(collectors.NewBuildInfoCollector())
}

// RecordRequest observes one finished HTTP request. route is the matched
// router pattern, never the raw path.
func RecordRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordDenial(kind, action string) {
	policyDenials.WithLabelValues(kind, action).Inc()
}

func RecordPointAdjustment(source string, delta int) {
	pointAdjustments.WithLabelValues(source).Inc()
	if delta < 0 {
		delta = -delta
	}
	pointsDelta.WithLabelValues(source).Add(float64(delta))
}

func RecordInvariantViolation() {
	invariantViolations.Inc()
}

func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func SetPointsSubscribers(n int) {
	pointsSubscribers.Set(float64(n))
}
