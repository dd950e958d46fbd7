package observability

import (
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Activation outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	upstreamErrors    *prometheus.CounterVec
	activations       *prometheus.CounterVec
	stepFailures      *prometheus.CounterVec
	compensations     *prometheus.CounterVec
	sessionRejections *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_upstream_errors_total",
				Help: "Backend calls that failed, by resource and status class.",
			},
			[]string{"resource", "status"},
		),
		activations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_activations_total",
				Help: "Plan activation attempts by outcome.",
			},
			[]string{"outcome"},
		),
		stepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_activation_step_failures_total",
				Help: "Activation failures by step.",
			},
			[]string{"step"},
		),
		compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_activation_compensations_total",
				Help: "Compensating deletes issued after a failed activation.",
			},
			[]string{"step"},
		),
		sessionRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_session_rejections_total",
				Help: "Sessions rejected by the auth gate, by context and reason.",
			},
			[]string{"context", "reason"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bfa_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
			},
			[]string{"name"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrUpstreamError counts a failed backend call. status is "transport" when
// no HTTP answer was received.
func (m *Metrics) IncrUpstreamError(resource, status string) {
	m.upstreamErrors.WithLabelValues(resource, status).Inc()
}

// IncrActivation counts one activation attempt by outcome.
func (m *Metrics) IncrActivation(outcome string) {
	m.activations.WithLabelValues(outcome).Inc()
}

// IncrStepFailure counts an activation failure at the given step.
func (m *Metrics) IncrStepFailure(step string) {
	m.stepFailures.WithLabelValues(step).Inc()
}

// IncrCompensation counts a compensating delete for the given step.
func (m *Metrics) IncrCompensation(step string) {
	m.compensations.WithLabelValues(step).Inc()
}

// IncrSessionRejection counts a session dropped by the auth gate.
func (m *Metrics) IncrSessionRejection(context, reason string) {
	m.sessionRejections.WithLabelValues(context, reason).Inc()
}

// SetBreakerState publishes a circuit breaker state transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// GetActivationSnapshot returns a snapshot of activation metrics suitable for
// the GET /v1/metrics/activation endpoint.
func (m *Metrics) GetActivationSnapshot() *domain.ActivationMetrics {
	succeeded := getCounterValue(m.activations, OutcomeSucceeded)
	failed := getCounterValue(m.activations, OutcomeFailed)
	rejected := getCounterValue(m.activations, OutcomeRejected)
	total := succeeded + failed + rejected

	successRate := float64(0)
	if total > 0 {
		successRate = succeeded / total
	}

	steps := make(map[string]int64, len(domain.ActivationSteps))
	compensations := float64(0)
	for _, step := range domain.ActivationSteps {
		if v := getCounterValue(m.stepFailures, step); v > 0 {
			steps[step] = int64(v)
		}
		compensations += getCounterValue(m.compensations, step)
	}

	rejections := float64(0)
	for _, c := range []string{string(domain.ContextClient), string(domain.ContextBackoffice)} {
		for _, reason := range []string{"missing", "decode", "context", "expired"} {
			rejections += getCounterValue(m.sessionRejections, c, reason)
		}
	}

	return &domain.ActivationMetrics{
		TotalActivations:  int64(total),
		Succeeded:         int64(succeeded),
		Failed:            int64(failed),
		Rejected:          int64(rejected),
		SuccessRate:       successRate,
		StepFailures:      steps,
		Compensations:     int64(compensations),
		SessionRejections: int64(rejections),
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
