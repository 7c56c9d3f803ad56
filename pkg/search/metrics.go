package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	combinationsScoredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "affinity",
		Name:      "search_combinations_scored_total",
		Help:      "The total number of families scored by search units.",
	})

	unitsInFlightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "affinity",
		Name:      "search_units_in_flight",
		Help:      "The number of search units currently running.",
	})

	unitDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "affinity",
		Name:      "search_unit_duration_ms",
		Help:      "Time (in ms) spent scoring one retained parent pair.",
		Buckets:   []float64{1, 10, 100, 1000, 10000, 60000, 600000},
	})

	searchesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "affinity",
		Name:      "searches_total",
		Help:      "The total number of searches by outcome.",
	}, []string{"outcome"})
)
