package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidbot_dispatch_total",
			Help: "Total number of handled place queries by outcome",
		},
		[]string{"outcome"},
	)

	sourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidbot_source_fetch_total",
			Help: "Total number of upstream source fetches by result",
		},
		[]string{"source", "result"},
	)

	sourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covidbot_source_fetch_duration_seconds",
			Help:    "Upstream source fetch duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidbot_telegram_updates_total",
			Help: "Total number of Telegram updates received by kind",
		},
		[]string{"kind"},
	)
)

// ObserveDispatch records the outcome of one handled query.
func ObserveDispatch(outcome string) {
	dispatchTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one upstream fetch. result is "ok", "transient" or "malformed".
func ObserveFetch(source, result string, elapsed time.Duration) {
	sourceFetchTotal.WithLabelValues(source, result).Inc()
	sourceFetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveUpdate records one incoming chat update.
func ObserveUpdate(kind string) {
	updatesTotal.WithLabelValues(kind).Inc()
}
