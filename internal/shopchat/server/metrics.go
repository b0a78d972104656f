package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is registered on a per-server registry so several servers (and
// tests) can coexist in one process.
type metrics struct {
	registry  *prometheus.Registry
	questions *prometheus.CounterVec
	latency   prometheus.Histogram
}

func newMetrics(sessions func() int) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopchat",
			Name:      "questions_total",
			Help:      "Questions received from browsers, by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shopchat",
			Name:      "answer_duration_seconds",
			Help:      "Time from accepting a question until its answer or failure.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}
	m.registry.MustRegister(
		m.questions,
		m.latency,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "shopchat",
			Name:      "browser_sessions",
			Help:      "Browser transcripts currently held in memory.",
		}, func() float64 { return float64(sessions()) }),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
