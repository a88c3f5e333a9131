package server

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sketch2web/generator"
	"sketch2web/imaging"
)

type metrics struct {
	generations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	states      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sketch2web_generations_total",
			Help: "Generation requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sketch2web_generation_duration_seconds",
			Help:    "Wall time of the generate pipeline.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 90},
		}, []string{"provider"}),
		states: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sketch2web_extractions_total",
			Help: "Completed generations by resulting session state.",
		}, []string{"state"}),
	}
}

func (m *metrics) observe(provider string, state generator.State, err error, took time.Duration) {
	m.generations.WithLabelValues(provider, outcome(err)).Inc()
	m.latency.WithLabelValues(provider).Observe(took.Seconds())
	if err == nil {
		m.states.WithLabelValues(state.String()).Inc()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, generator.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, generator.ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, imaging.ErrImageTooLarge), errors.Is(err, generator.ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "upstream_error"
	}
}
