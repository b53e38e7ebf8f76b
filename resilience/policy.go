package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/callguard/observe"
)

// Operation is a unit of work executed under a policy. It must honor ctx
// cancellation for true cleanup; the pipeline only guarantees the caller is
// unblocked when an attempt times out.
type Operation func(ctx context.Context) error

// Policy is one named resilience configuration together with its circuit
// breaker and bulkhead. Policies are created by a Registry, are immutable
// once created, and live for the life of the process.
type Policy struct {
	name     string
	config   Config
	breaker  *CircuitBreaker
	bulkhead *Bulkhead

	lastAttempts atomic.Int64

	logger  observe.Logger
	metrics observe.Metrics
}

func newPolicy(name string, cfg Config, logger observe.Logger, metrics observe.Metrics) *Policy {
	cfg = cfg.withDefaults()

	p := &Policy{
		name:     name,
		config:   cfg,
		bulkhead: NewBulkhead(cfg.MaxConcurrentCalls, cfg.MaxBulkheadWaitDuration),
		logger:   logger,
		metrics:  metrics,
	}

	p.breaker = NewCircuitBreaker(CircuitBreakerConfig{
		FailureRateThreshold:    cfg.FailureRateThreshold,
		WaitDurationInOpenState: cfg.WaitDurationInOpenState,
		SlidingWindowSize:       cfg.SlidingWindowSize,
		MinimumNumberOfCalls:    cfg.MinimumNumberOfCalls,
		OnStateChange:           p.onStateChange,
	})

	return p
}

// Name returns the policy name.
func (p *Policy) Name() string {
	return p.name
}

// Config returns the policy's effective configuration, defaults applied.
func (p *Policy) Config() Config {
	return p.config
}

// Execute runs the unit of work through the full pipeline:
// bulkhead admission, circuit check, retry loop, per-attempt timeout.
//
// The breaker's statistics are updated exactly once per call, on the final
// outcome, and only genuine attempt outcomes count: ErrBulkheadFull and
// ErrCircuitOpen are reported to the caller but never recorded as failure
// samples. The bulkhead slot is released on every exit path.
func (p *Policy) Execute(ctx context.Context, op Operation) error {
	start := time.Now()
	err := p.execute(ctx, op)
	if p.metrics != nil {
		outcome := observe.OutcomeSuccess
		if err != nil {
			outcome = KindOf(err).String()
		}
		p.metrics.RecordCall(ctx, p.name, time.Since(start), outcome)
	}
	return err
}

func (p *Policy) execute(ctx context.Context, op Operation) error {
	if err := p.bulkhead.Acquire(ctx); err != nil {
		if errors.Is(err, ErrBulkheadFull) && p.logger != nil {
			p.logger.Warn(ctx, "call rejected: bulkhead at capacity",
				observe.Field{Key: "policy", Value: p.name},
				observe.Field{Key: "max_concurrent", Value: p.bulkhead.Max()})
		}
		return err
	}
	defer p.bulkhead.Release()

	attempts := 0
	defer func() {
		p.lastAttempts.Store(int64(attempts))
	}()

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		// Each attempt is subject to the current circuit state, so a
		// circuit opening mid-sequence stops the remaining attempts.
		admitted, probe := p.breaker.allow()
		if !admitted {
			return ErrCircuitOpen
		}

		attempts++
		err := p.attempt(ctx, op)
		if err == nil {
			p.breaker.Record(true)
			return nil
		}

		// Caller gave up; the outcome says nothing about the dependency.
		// A held probe is released so a later call can probe again.
		if ctx.Err() != nil {
			if probe {
				p.breaker.cancelProbe()
			}
			return ctx.Err()
		}

		lastErr = err
		kind := KindOf(err)
		// A failed half-open probe is terminal: the circuit must re-open
		// rather than burn the remaining attempts against a dependency
		// that just proved it has not recovered.
		if probe || !p.config.retryable(kind) {
			break
		}
		if attempt == p.config.MaxAttempts {
			lastErr = fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
			break
		}

		wait := p.config.RetryWaitDuration * time.Duration(attempt)
		if p.logger != nil {
			p.logger.Debug(ctx, "attempt failed, backing off",
				observe.Field{Key: "policy", Value: p.name},
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "backoff", Value: wait.String()},
				observe.Field{Key: "error", Value: err.Error()})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	p.breaker.Record(false)
	return lastErr
}

// attempt runs the unit of work once under a fresh timeout budget. If the
// work outlives the timeout it is abandoned, not stopped: cancellation is
// cooperative via the derived ctx.
func (p *Policy) attempt(ctx context.Context, op Operation) error {
	attemptCtx, cancel := context.WithTimeout(ctx, p.config.TimeoutDuration)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(attemptCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTimeout
	}
}

// Breaker returns the policy's circuit breaker.
func (p *Policy) Breaker() *CircuitBreaker {
	return p.breaker
}

// State returns the current circuit state.
func (p *Policy) State() State {
	return p.breaker.State()
}

func (p *Policy) onStateChange(from, to State) {
	if p.logger != nil {
		fields := []observe.Field{
			{Key: "policy", Value: p.name},
			{Key: "from", Value: from.String()},
			{Key: "to", Value: to.String()},
		}
		if to == StateOpen {
			p.logger.Warn(context.Background(), "circuit opened", fields...)
		} else {
			p.logger.Info(context.Background(), "circuit state changed", fields...)
		}
	}
	if p.metrics != nil {
		p.metrics.RecordStateChange(context.Background(), p.name, from.String(), to.String())
	}
	if p.config.OnStateChange != nil {
		p.config.OnStateChange(p.name, from, to)
	}
}
