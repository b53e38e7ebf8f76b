package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OutcomeSuccess is the outcome label for a successful call. Failed calls
// carry their failure kind (timeout, bulkhead_full, circuit_open,
// underlying) as the outcome.
const OutcomeSuccess = "success"

// Metrics records outcomes of resilient calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one terminal call outcome with its duration.
	// outcome is OutcomeSuccess or a failure kind label.
	RecordCall(ctx context.Context, policy string, duration time.Duration, outcome string)

	// RecordStateChange records a circuit breaker state transition.
	RecordStateChange(ctx context.Context, policy string, from, to string)
}

// metricsImpl is the concrete OpenTelemetry implementation of Metrics.
type metricsImpl struct {
	totalCount   metric.Int64Counter
	failureCount metric.Int64Counter
	transitions  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"call.exec.total",
		metric.WithDescription("Total number of resilient call executions"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	failureCount, err := meter.Int64Counter(
		"call.exec.failures",
		metric.WithDescription("Total number of failed resilient calls"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"call.breaker.transitions",
		metric.WithDescription("Total number of circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"call.exec.duration_ms",
		metric.WithDescription("Resilient call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		failureCount: failureCount,
		transitions:  transitions,
		durationHist: durationHist,
	}, nil
}

// RecordCall records one terminal call outcome.
func (m *metricsImpl) RecordCall(ctx context.Context, policy string, duration time.Duration, outcome string) {
	opt := metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.String("outcome", outcome),
	)

	m.totalCount.Add(ctx, 1, opt)
	if outcome != OutcomeSuccess {
		m.failureCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordStateChange records a circuit transition with from/to attributes.
func (m *metricsImpl) RecordStateChange(ctx context.Context, policy string, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// NoopMetrics is a Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) RecordCall(ctx context.Context, policy string, duration time.Duration, outcome string) {
}
func (NoopMetrics) RecordStateChange(ctx context.Context, policy string, from, to string) {}

var _ Metrics = (*metricsImpl)(nil)
var _ Metrics = NoopMetrics{}
