// Package metrics holds the Prometheus instruments for the prayer-times pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quranlake_network_request_duration_seconds",
		Help:    "Duration of outbound HTTP calls.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quranlake_network_request_total",
		Help: "Outbound HTTP calls by component, operation and status.",
	}, []string{"component", "operation", "status"})

	CacheOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quranlake_cache_operations_total",
		Help: "Prayer-times cache operations by kind and result.",
	}, []string{"op", "result"})

	AdhanTriggers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quranlake_adhan_triggers_total",
		Help: "Adhan triggers by prayer and kind (scheduled, manual, muted).",
	}, []string{"prayer", "kind"})

	ViewPhase = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quranlake_view_phase",
		Help: "1 for the phase the prayer-times view is currently in.",
	}, []string{"phase"})

	Online = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quranlake_online",
		Help: "1 when the connectivity probe reports online.",
	})
)

// MustRegister registers every instrument with registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		CacheOperations,
		AdhanTriggers,
		ViewPhase,
		Online,
	)
}

// ObserveNetworkRequest records duration and outcome of an outbound call.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(time.Since(start).Seconds())
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}

// IncCache counts a cache operation ("get", "set", "clear") with its result.
func IncCache(op, result string) {
	CacheOperations.WithLabelValues(op, result).Inc()
}

// IncAdhan counts an adhan trigger.
func IncAdhan(prayer, kind string) {
	AdhanTriggers.WithLabelValues(prayer, kind).Inc()
}

// SetPhase marks phase as the active view phase.
func SetPhase(phase string, all []string) {
	for _, p := range all {
		v := 0.0
		if p == phase {
			v = 1
		}
		ViewPhase.WithLabelValues(p).Set(v)
	}
}

// SetOnline records the connectivity state.
func SetOnline(online bool) {
	if online {
		Online.Set(1)
		return
	}
	Online.Set(0)
}
