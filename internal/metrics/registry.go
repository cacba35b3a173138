package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the pipeline's instrumentation.
type Registry struct {
	registry *prometheus.Registry

	DecisionsTotal         *prometheus.CounterVec
	HardOverridesTotal     prometheus.Counter
	AdvisoryFallbacksTotal *prometheus.CounterVec
	AdvisoryCallDuration   *prometheus.HistogramVec
	CasesCreatedTotal      prometheus.Counter
	CaseActionsTotal       *prometheus.CounterVec
	RiskScoreDistribution  prometheus.Histogram
}

// NewRegistry creates a registry with all pipeline metrics registered.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	return &Registry{
		registry: registry,
		DecisionsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "risk_decisions_total",
			Help: "Total number of adjudicated decisions by final verdict",
		}, []string{"verdict"}),
		HardOverridesTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "risk_hard_overrides_total",
			Help: "Total number of advisory verdicts forced to block by the override policy",
		}),
		AdvisoryFallbacksTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "advisory_fallbacks_total",
			Help: "Total number of advisory calls that degraded to the deterministic fallback",
		}, []string{"operation"}),
		AdvisoryCallDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisory_call_duration_seconds",
			Help:    "Latency of advisory service calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		CasesCreatedTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "investigation_cases_created_total",
			Help: "Total number of investigation cases created",
		}),
		CaseActionsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "investigation_case_actions_total",
			Help: "Total number of applied analyst case actions",
		}, []string{"action"}),
		RiskScoreDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_score_distribution",
			Help:    "Distribution of final risk scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}),
	}
}

// Handler exposes the registry for scraping.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
