package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is failing fast.
	StateOpen
	// StateHalfOpen means the circuit is probing whether the dependency
	// recovered, by allowing exactly one trial call.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// FailureRateThreshold is the failure percentage (0-100) that opens the
	// circuit once the window holds at least MinimumNumberOfCalls.
	FailureRateThreshold float64

	// WaitDurationInOpenState is how long the circuit stays open before the
	// next Allow transitions it to half-open.
	WaitDurationInOpenState time.Duration

	// SlidingWindowSize is the capacity of the rolling outcome window.
	SlidingWindowSize int

	// MinimumNumberOfCalls is the volume below which the breaker never
	// opens, regardless of failure rate.
	MinimumNumberOfCalls int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)
}

// CircuitBreaker gates execution and tracks rolling outcome statistics.
// Safe for concurrent use. Each outcome report is a single atomic
// append-and-evaluate under one lock, so concurrent completions cannot lose
// updates.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	window   *rollingWindow
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureRateThreshold <= 0 {
		config.FailureRateThreshold = DefaultFailureRateThreshold
	}
	if config.WaitDurationInOpenState <= 0 {
		config.WaitDurationInOpenState = DefaultWaitDurationInOpen
	}
	if config.SlidingWindowSize <= 0 {
		config.SlidingWindowSize = DefaultSlidingWindowSize
	}
	if config.MinimumNumberOfCalls <= 0 {
		config.MinimumNumberOfCalls = DefaultMinimumNumberOfCalls
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		window: newRollingWindow(config.SlidingWindowSize),
	}
}

// Allow reports whether a call may proceed. It never mutates statistics:
// denied calls are not recorded anywhere.
//
// In the open state, Allow returns true exactly once after the open-wait
// duration elapses, transitioning to half-open; while that probe is in
// flight every other Allow returns false.
func (cb *CircuitBreaker) Allow() bool {
	admitted, _ := cb.allow()
	return admitted
}

// allow additionally reports whether the admitted call holds the half-open
// probe. The probe holder owns the circuit's next transition: it must finish
// with Record, or with cancelProbe when it produced no outcome.
func (cb *CircuitBreaker) allow() (admitted, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true, false

	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.WaitDurationInOpenState {
			return false, false
		}
		cb.setState(StateHalfOpen)
		cb.probing = true
		return true, true

	case StateHalfOpen:
		if cb.probing {
			return false, false
		}
		cb.probing = true
		return true, true
	}
	return false, false
}

// cancelProbe releases the half-open probe without recording an outcome, so
// a later call may probe again. Called by a probe holder whose caller gave
// up before the attempt finished.
func (cb *CircuitBreaker) cancelProbe() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.probing = false
	}
}

// Record reports a call's terminal outcome. In half-open, a success closes
// the circuit and a failure re-opens it with a fresh open-wait timer. In
// closed, the outcome joins the rolling window and the circuit opens once
// the window holds at least the minimum call volume with a failure rate at
// or above the threshold.
func (cb *CircuitBreaker) Record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.probing = false
		if success {
			cb.window.reset()
			cb.setState(StateClosed)
		} else {
			cb.openedAt = time.Now()
			cb.setState(StateOpen)
		}

	case StateClosed:
		cb.window.record(success)
		if cb.window.count >= cb.config.MinimumNumberOfCalls &&
			cb.window.failureRate() >= cb.config.FailureRateThreshold {
			cb.openedAt = time.Now()
			cb.setState(StateOpen)
		}

	case StateOpen:
		// A call admitted earlier may complete after the circuit opened.
		// Keep the sample; it cannot change the state while open.
		cb.window.record(success)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns the success and failure totals in the rolling window.
func (cb *CircuitBreaker) Counts() (successes, failures int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.window.counts()
}

// Reset forces the circuit back to closed with an empty window.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window.reset()
	cb.probing = false
	cb.setState(StateClosed)
}

func (cb *CircuitBreaker) setState(state State) {
	if cb.state == state {
		return
	}
	old := cb.state
	cb.state = state
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(old, state)
	}
}
