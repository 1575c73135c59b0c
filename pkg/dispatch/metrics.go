package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktopia_fetch_total",
		Help: "Total completed record fetches by outcome",
	}, []string{"outcome"}) // "ok", "http_failure", "no_data", "extract_error"

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booktopia_fetch_duration_seconds",
		Help:    "Record fetch duration in seconds, including extraction",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	fetchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booktopia_fetch_in_flight",
		Help: "Number of record fetches currently running",
	})
)
