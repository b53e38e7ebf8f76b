// Package resilience provides fault-tolerant execution of outbound
// service-to-service calls.
//
// Every call runs through a named policy that composes four protections
// around a caller-supplied unit of work:
//
//   - Bulkhead: limits concurrent calls so one dependency cannot exhaust
//     the caller's resources.
//
//   - Circuit Breaker: tracks recent call outcomes in a count-based rolling
//     window and fails fast while a dependency is presumed unhealthy.
//
//   - Retry: re-attempts failed work with linear backoff (base delay
//     multiplied by the attempt number).
//
//   - Timeout: bounds each individual attempt; every retry gets a fresh
//     timeout budget.
//
// The composition order is fixed: bulkhead, then circuit breaker, then
// retry, then timeout. The bulkhead is outermost so that capacity
// rejections never count against the breaker's failure statistics, and the
// breaker is re-checked before every retry attempt so that a circuit
// opening mid-sequence stops the remaining attempts immediately.
//
// # Usage
//
// Policies are owned by a Registry, created lazily by name and reused for
// the life of the process:
//
//	reg := resilience.NewRegistry()
//
//	err := reg.ExecuteWithConfig(ctx, "payment-service", resilience.Config{
//	    FailureRateThreshold: 50,
//	    TimeoutDuration:      2 * time.Second,
//	    MaxAttempts:          3,
//	}, func(ctx context.Context) error {
//	    return callPaymentService(ctx)
//	})
//
// A downstream outage surfaces to callers as fast ErrCircuitOpen failures
// instead of slow timeouts once the failure-rate threshold trips.
//
// # Cancellation
//
// A timed-out attempt unblocks the caller promptly but does not stop the
// abandoned unit of work; the work keeps running unless it observes the
// context it was given. Units of work should honor ctx cancellation to get
// true resource cleanup.
package resilience
