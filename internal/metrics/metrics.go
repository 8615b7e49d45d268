package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sweep metrics
	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatcher_sweeps_total",
			Help: "Total number of alert sweeps",
		},
		[]string{"status"}, // status: completed, failed, skipped
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockwatcher_sweep_duration_seconds",
			Help:    "Wall time of a full alert sweep",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	AlertsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatcher_alerts_evaluated_total",
			Help: "Total number of active alerts evaluated",
		},
	)

	AlertsTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatcher_alerts_triggered_total",
			Help: "Total number of alerts whose threshold condition fired",
		},
	)

	AlertsInvalid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatcher_alerts_invalid_total",
			Help: "Total number of malformed alert records skipped",
		},
	)

	// Upstream failure metrics
	QuoteFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatcher_quote_fetch_errors_total",
			Help: "Total number of failed quote lookups",
		},
		[]string{"kind"}, // kind: not_found, provider
	)

	NotifySendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockwatcher_notify_send_errors_total",
			Help: "Total number of failed notification sends",
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwatcher_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
