package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the dashboard's Prometheus collectors.
type Registry struct {
	Analyses       *prometheus.CounterVec
	RemoteFailures *prometheus.CounterVec
	WebhookLatency prometheus.Histogram
	DatastoreFails *prometheus.CounterVec
	Fallbacks      prometheus.Counter
}

// NewRegistry creates the collectors and registers them with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_analyses_total",
				Help: "Analysis actions by resulting category and data source",
			},
			[]string{"category", "source"},
		),
		RemoteFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_webhook_failures_total",
				Help: "Analysis webhook failures by kind",
			},
			[]string{"kind"},
		),
		WebhookLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pulse_webhook_duration_seconds",
				Help:    "Duration of analysis webhook calls",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 45},
			},
		),
		DatastoreFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_datastore_failures_total",
				Help: "Datastore read failures by operation",
			},
			[]string{"operation"},
		),
		Fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pulse_cache_fallbacks_total",
				Help: "Analyses displayed from cached history because the webhook failed",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(r.Analyses, r.RemoteFailures, r.WebhookLatency, r.DatastoreFails, r.Fallbacks)
	}
	return r
}
