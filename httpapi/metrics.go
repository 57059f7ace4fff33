package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors, grounded on the teacher's internal/app/metrics package: a
// dedicated registry rather than the global default, counters/histograms
// per concern, exposed at /metrics via promhttp.Handler.
var (
	Registry = prometheus.NewRegistry()

	eventsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simorg_events_appended_total",
			Help: "Total events successfully appended, by project and event type.",
		},
		[]string{"project_id", "event_type"},
	)

	appendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simorg_append_duration_seconds",
			Help:    "Latency of the full append pipeline (validate, transition, persist).",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"project_id"},
	)

	structuralDebt = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simorg_structural_debt",
			Help: "Current structural_debt for a project.",
		},
		[]string{"project_id"},
	)

	determinismFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simorg_determinism_failures_total",
			Help: "Total verify_determinism calls that found a hash mismatch.",
		},
		[]string{"project_id"},
	)
)

func init() {
	Registry.MustRegister(eventsAppended, appendDuration, structuralDebt, determinismFailures)
}

// metricsHandler exposes the dedicated registry, not the global default.
func metricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func observeAppend(projectID string, start time.Time) {
	appendDuration.WithLabelValues(projectID).Observe(time.Since(start).Seconds())
}
