// Package metrics exposes Prometheus instrumentation for the engine and
// the HTTP surface, registered once and served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RegionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spotfence_regions_active",
		Help: "Number of regions currently registered with the monitoring boundary",
	})
	ReconcilesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spotfence_reconciles_total",
		Help: "Reconciliation passes by trigger",
	}, []string{"trigger"})
	BoundaryCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spotfence_boundary_calls_total",
		Help: "Start/stop calls issued to the monitoring boundary by outcome",
	}, []string{"op", "result"})
	SaturationTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spotfence_reconcile_saturation_total",
		Help: "Desired regions skipped because the monitoring cap left no headroom",
	})
	CandidatesExcludedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spotfence_candidates_excluded_total",
		Help: "Candidate spots dropped by validation",
	})
	CrossingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spotfence_crossings_total",
		Help: "Raw region crossings consumed by the engine",
	}, []string{"kind"})
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spotfence_notifications_total",
		Help: "Notification decisions by outcome",
	}, []string{"outcome"})
	EventQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spotfence_event_queue_depth",
		Help: "Events waiting in the engine's serialized queue",
	})
)

func init() {
	prometheus.MustRegister(RegionsActive)
	prometheus.MustRegister(ReconcilesTotal)
	prometheus.MustRegister(BoundaryCallsTotal)
	prometheus.MustRegister(SaturationTotal)
	prometheus.MustRegister(CandidatesExcludedTotal)
	prometheus.MustRegister(CrossingsTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(EventQueueDepth)
}

// Handler returns the Prometheus scrape handler for the registered metrics.
func Handler() http.Handler { return promhttp.Handler() }
