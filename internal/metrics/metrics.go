// Package metrics expone los contadores Prometheus del servicio.
//
//	metrics.RecordQuery("ok", time.Since(start))
//	metrics.RecordBuild(true, batches, elapsed)
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

var (
	// QueriesTotal consultas de recomendación por resultado.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_queries_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"outcome"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinerec_query_duration_seconds",
			Help:    "Duration of recommendation queries in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	SuggestTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinerec_suggest_total",
			Help: "Total number of autocomplete requests",
		},
	)

	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_index_builds_total",
			Help: "Total number of index builds by result",
		},
		[]string{"result"},
	)

	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinerec_index_build_duration_seconds",
			Help:    "Duration of index builds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		},
	)

	BuildBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinerec_index_build_batches_total",
			Help: "Total number of similarity batches computed",
		},
	)

	// IndexItems ítems del snapshot que se está sirviendo.
	IndexItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinerec_index_items",
			Help: "Number of catalog items in the loaded index",
		},
	)

	HistoryDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinerec_history_dropped_total",
			Help: "Query history records dropped because the recorder queue was full",
		},
	)
)

func RecordQuery(outcome string, d time.Duration) {
	QueriesTotal.WithLabelValues(outcome).Inc()
	QueryDuration.Observe(d.Seconds())
}

func RecordSuggest() {
	SuggestTotal.Inc()
}

// RecordBuild registra un build terminado (ok o fallido).
func RecordBuild(ok bool, batches int, d time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	BuildsTotal.WithLabelValues(result).Inc()
	BuildDuration.Observe(d.Seconds())
	BuildBatchesTotal.Add(float64(batches))
}

func SetIndexItems(n int) {
	IndexItems.Set(float64(n))
}

func RecordHistoryDrop() {
	HistoryDroppedTotal.Inc()
}
