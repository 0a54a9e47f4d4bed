package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for the access layer.
type Metrics struct {
	registry *prometheus.Registry

	// AccessDecisionsTotal counts engine decisions by classification and outcome.
	AccessDecisionsTotal *prometheus.CounterVec
	// RateLimitRejectionsTotal counts 429s by scope.
	RateLimitRejectionsTotal *prometheus.CounterVec
	// SessionResolutionsTotal counts session resolution results.
	SessionResolutionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitegate_access_decisions_total",
				Help: "Access engine decisions by route classification and outcome",
			},
			[]string{"classification", "outcome"},
		),
		RateLimitRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitegate_ratelimit_rejections_total",
				Help: "Requests rejected with 429 by rate limit scope",
			},
			[]string{"scope"},
		),
		SessionResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitegate_session_resolutions_total",
				Help: "Session resolution attempts by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.AccessDecisionsTotal,
		m.RateLimitRejectionsTotal,
		m.SessionResolutionsTotal,
	)
	return m
}

// RecordDecision counts one engine decision.
func (m *Metrics) RecordDecision(classification, outcome string) {
	m.AccessDecisionsTotal.WithLabelValues(classification, outcome).Inc()
}

// RecordRateLimitRejection counts one 429 for a scope.
func (m *Metrics) RecordRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// RecordSessionResolution counts one session resolution result
// ("resolved" or "anonymous").
func (m *Metrics) RecordSessionResolution(result string) {
	m.SessionResolutionsTotal.WithLabelValues(result).Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
