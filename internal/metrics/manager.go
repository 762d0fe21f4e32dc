package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coachdesk"

// Manager owns every collector the back office exports.
type Manager struct {
	// counters
	CounterRequests         *prometheus.CounterVec
	CounterPeriodsBuilt     prometheus.Counter
	CounterAdjustmentWrites *prometheus.CounterVec
	CounterDigestEmails     *prometheus.CounterVec
	CounterSlowQueries      prometheus.Counter

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistQueryDuration   *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewManager registers all collectors on reg.
// PRE: reg is non-nil and has not seen these collectors before
// POST: Returns a Manager whose Handler serves reg's metrics
func NewManager(reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by method and status code.",
		}, []string{"method", "status"}),
		CounterPeriodsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adherence",
			Name:      "periods_built_total",
			Help:      "Periods computed across all period views.",
		}),
		CounterAdjustmentWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adherence",
			Name:      "adjustment_writes_total",
			Help:      "Period start override writes, by outcome.",
		}, []string{"result"}),
		CounterDigestEmails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "digest",
			Name:      "emails_total",
			Help:      "Adherence digest emails, by outcome.",
		}, []string{"result"}),
		CounterSlowQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "slow_queries_total",
			Help:      "Queries slower than the configured threshold.",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HistQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database call latency, by statement verb and table.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, 1},
		}, []string{"statement"}),
		gatherer: reg,
	}
}

// NewTestManager returns a Manager on a private registry.
func NewTestManager() *Manager {
	return NewManager(prometheus.NewRegistry())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
