// Package metrics exposes Prometheus counters for the room synchronizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hydration outcomes.
const (
	HydrationOK      = "ok"
	HydrationFailed  = "failed"
	HydrationDropped = "dropped"
)

// Metrics is safe to use through a nil pointer, in which case nothing is
// recorded.
type Metrics struct {
	eventsApplied   *prometheus.CounterVec
	decodeFallbacks prometheus.Counter
	hydrations      *prometheus.CounterVec
	reconnects      prometheus.Counter
	staleDropped    *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		eventsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vivachat",
			Name:      "events_applied_total",
			Help:      "Real-time events applied to the room view",
		}, []string{"kind"}),
		decodeFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vivachat",
			Name:      "decode_fallbacks_total",
			Help:      "Frames delivered as raw events because they could not be decoded",
		}),
		hydrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vivachat",
			Name:      "hydrations_total",
			Help:      "Single-message fetches for incomplete file messages",
		}, []string{"outcome"}),
		reconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vivachat",
			Name:      "reconnects_total",
			Help:      "Transport connections established after the first one",
		}),
		staleDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vivachat",
			Name:      "stale_results_dropped_total",
			Help:      "Results discarded because their room session had ended",
		}, []string{"source"}),
		apiDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vivachat",
			Name:      "api_request_duration_seconds",
			Help:      "REST request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "endpoint", "status"}),
	}
}

func (m *Metrics) EventApplied(kind string) {
	if m == nil {
		return
	}
	m.eventsApplied.WithLabelValues(kind).Inc()
}

func (m *Metrics) DecodeFallback() {
	if m == nil {
		return
	}
	m.decodeFallbacks.Inc()
}

func (m *Metrics) Hydration(outcome string) {
	if m == nil {
		return
	}
	m.hydrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) StaleDropped(source string) {
	if m == nil {
		return
	}
	m.staleDropped.WithLabelValues(source).Inc()
}

// ObserveAPI records a REST call. endpoint must be a route template, not a
// concrete path, to keep cardinality bounded.
func (m *Metrics) ObserveAPI(method, endpoint, status string, seconds float64) {
	if m == nil {
		return
	}
	m.apiDuration.WithLabelValues(method, endpoint, status).Observe(seconds)
}
