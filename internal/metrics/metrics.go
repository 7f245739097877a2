// Package metrics exposes Prometheus collectors for indexing and search.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	indexBuilds    *prometheus.CounterVec
	searches       *prometheus.CounterVec
	searchLatency  prometheus.Histogram
	activeChunks   prometheus.Gauge
	vocabularySize prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		indexBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "index_builds_total",
			Help:      "Index builds by outcome.",
		}, []string{"result"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "searches_total",
			Help:      "Searches by outcome.",
		}, []string{"result"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "search_duration_seconds",
			Help:      "Search latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		activeChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docsearch",
			Name:      "active_chunks",
			Help:      "Chunks in the active document.",
		}),
		vocabularySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docsearch",
			Name:      "vocabulary_size",
			Help:      "Features in the active index.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.indexBuilds, m.searches, m.searchLatency, m.activeChunks, m.vocabularySize)
	}
	return m
}

func (m *Metrics) IndexBuilt(chunks, vocabulary int) {
	if m == nil {
		return
	}
	m.indexBuilds.WithLabelValues("ok").Inc()
	m.activeChunks.Set(float64(chunks))
	m.vocabularySize.Set(float64(vocabulary))
}

func (m *Metrics) IndexFailed() {
	if m == nil {
		return
	}
	m.indexBuilds.WithLabelValues("error").Inc()
}

func (m *Metrics) Searched(d time.Duration, err error, cached bool) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case cached:
		result = "cached"
	}
	m.searches.WithLabelValues(result).Inc()
	m.searchLatency.Observe(d.Seconds())
}
