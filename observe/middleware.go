package observe

import (
	"context"
	"time"
)

// CallFunc is the signature for an outbound call. This is the standard
// function signature that Middleware wraps.
type CallFunc func(ctx context.Context) error

// Middleware wraps outbound calls with observability (tracing, metrics,
// logging) in one place.
//
// Contract:
//   - Concurrency: Wrap returns a thread-safe CallFunc.
//   - Context: propagates context through tracing spans.
//   - Errors: errors from the wrapped function are recorded and propagated
//     unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware with the given observability
// components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a call under the named policy with tracing, metrics, and
// logging.
func (m *Middleware) Wrap(policy string, fn CallFunc) CallFunc {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartCall(ctx, policy)
		start := time.Now()

		err := fn(ctx)
		duration := time.Since(start)

		m.tracer.EndCall(span, err)

		outcome := OutcomeSuccess
		if err != nil {
			outcome = "failure"
		}
		m.metrics.RecordCall(ctx, policy, duration, outcome)

		logger := m.logger.WithPolicy(policy)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "call failed", fields...)
		} else {
			logger.Debug(ctx, "call completed", fields...)
		}

		return err
	}
}
