package resilience

import (
	"context"
	"errors"
)

// Sentinel errors for resilient call execution.
var (
	// ErrBulkheadFull is returned when a call cannot be admitted because the
	// policy is at its concurrency limit. Never counted as a breaker failure.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrCircuitOpen is returned when the circuit breaker is denying calls.
	// Never counted as a breaker failure.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when a single attempt does not complete within
	// the policy's timeout duration.
	ErrTimeout = errors.New("resilience: attempt timed out")

	// ErrRetriesExhausted wraps the last attempt's failure once all attempts
	// are spent.
	ErrRetriesExhausted = errors.New("resilience: retries exhausted")

	// ErrPolicyNotFound is returned when a snapshot is requested for a name
	// that has no registered policy.
	ErrPolicyNotFound = errors.New("resilience: policy not found")
)

// Kind classifies a call failure for retry decisions and metrics.
type Kind int

const (
	// KindUnderlying means the unit of work itself returned an error.
	KindUnderlying Kind = iota
	// KindTimeout means an attempt exceeded the policy's timeout duration.
	KindTimeout
	// KindBulkheadFull means the call was rejected for lack of capacity.
	KindBulkheadFull
	// KindCircuitOpen means the breaker denied the call.
	KindCircuitOpen
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnderlying:
		return "underlying"
	case KindTimeout:
		return "timeout"
	case KindBulkheadFull:
		return "bulkhead_full"
	case KindCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// KindOf classifies an error returned by a resilient call.
// Deadline errors from the unit of work's own context are classified as
// timeouts so they participate in retry and breaker accounting the same way.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrBulkheadFull):
		return KindBulkheadFull
	case errors.Is(err, ErrCircuitOpen):
		return KindCircuitOpen
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindUnderlying
	}
}
