package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus counters for the recipe pipelines.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
	captionsTotal       *prometheus.CounterVec
	stepsTotal          prometheus.Counter
	briefingsTotal      prometheus.Counter
	verificationsTotal  *prometheus.CounterVec
	modelCallsTotal    prometheus.Counter
	modelFailuresTotal prometheus.Counter
}

// New creates and registers the pipeline metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipe_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipe_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	captionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_captions_total",
		Help: "Caption extractions by origin (manual, auto, stt)",
	}, []string{"origin"})
	stepsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipe_steps_total",
		Help: "Total number of step summaries generated",
	})
	briefingsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipe_briefings_total",
		Help: "Total number of comment briefings generated",
	})
	verificationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_verifications_total",
		Help: "Video verifications by outcome (recipe, not_recipe)",
	}, []string{"outcome"})
	modelCallsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipe_model_calls_total",
		Help: "Total number of model invocations",
	})
	modelFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipe_model_failures_total",
		Help: "Total number of failed model invocations",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		captionsTotal,
		stepsTotal,
		briefingsTotal,
		verificationsTotal,
		modelCallsTotal,
		modelFailuresTotal,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		errorsTotal:        errorsTotal,
		captionsTotal:      captionsTotal,
		stepsTotal:         stepsTotal,
		briefingsTotal:     briefingsTotal,
		verificationsTotal: verificationsTotal,
		modelCallsTotal:    modelCallsTotal,
		modelFailuresTotal: modelFailuresTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() { m.requestsTotal.Inc() }

// IncErrors increments the error response counter.
func (m *Metrics) IncErrors() { m.errorsTotal.Inc() }

// IncCaptions records one caption extraction with its origin.
func (m *Metrics) IncCaptions(origin string) { m.captionsTotal.WithLabelValues(origin).Inc() }

// IncSteps increments the step summary counter.
func (m *Metrics) IncSteps() { m.stepsTotal.Inc() }

// IncBriefings increments the briefing counter.
func (m *Metrics) IncBriefings() { m.briefingsTotal.Inc() }

// IncVerifications records one verification with its outcome.
func (m *Metrics) IncVerifications(outcome string) {
	m.verificationsTotal.WithLabelValues(outcome).Inc()
}

// IncModelCalls increments the model invocation counter.
func (m *Metrics) IncModelCalls() { m.modelCallsTotal.Inc() }

// IncModelFailures increments the failed model invocation counter.
func (m *Metrics) IncModelFailures() { m.modelFailuresTotal.Inc() }

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
