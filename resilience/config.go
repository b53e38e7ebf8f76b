package resilience

import "time"

// Config configures one named policy. Every field is optional; zero values
// are replaced with the documented defaults when the policy is created.
// Policies are immutable once created, so later calls that pass a different
// Config for the same name keep the first policy's configuration.
type Config struct {
	// FailureRateThreshold is the failure percentage (0-100) at which the
	// circuit opens, once the window holds at least MinimumNumberOfCalls.
	// Default: 50
	FailureRateThreshold float64

	// WaitDurationInOpenState is how long the circuit stays open before a
	// probe call is allowed.
	// Default: 60 seconds
	WaitDurationInOpenState time.Duration

	// SlidingWindowSize is the number of recent call outcomes retained for
	// failure-rate evaluation.
	// Default: 10
	SlidingWindowSize int

	// MinimumNumberOfCalls is the call volume required in the window before
	// the breaker evaluates the failure rate at all.
	// Default: 5
	MinimumNumberOfCalls int

	// MaxAttempts is the maximum number of attempts including the first.
	// 1 means no retries.
	// Default: 3
	MaxAttempts int

	// RetryWaitDuration is the backoff base. The wait before attempt n+1 is
	// RetryWaitDuration multiplied by n (linear backoff).
	// Default: 1 second
	RetryWaitDuration time.Duration

	// RetryableKinds is the allow-list of failure kinds that trigger a
	// retry. Empty means every failure is retryable.
	RetryableKinds []Kind

	// TimeoutDuration bounds each individual attempt.
	// Default: 5 seconds
	TimeoutDuration time.Duration

	// MaxConcurrentCalls is the bulkhead concurrency limit.
	// Default: 25
	MaxConcurrentCalls int

	// MaxBulkheadWaitDuration is how long an admission may wait for a free
	// slot. 0 rejects immediately when the bulkhead is full.
	// Default: 0
	MaxBulkheadWaitDuration time.Duration

	// OnStateChange is called when the policy's circuit changes state.
	OnStateChange func(policy string, from, to State)
}

// Defaults applied by withDefaults.
const (
	DefaultFailureRateThreshold = 50.0
	DefaultWaitDurationInOpen   = 60 * time.Second
	DefaultSlidingWindowSize    = 10
	DefaultMinimumNumberOfCalls = 5
	DefaultMaxAttempts          = 3
	DefaultRetryWaitDuration    = time.Second
	DefaultTimeoutDuration      = 5 * time.Second
	DefaultMaxConcurrentCalls   = 25
)

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = DefaultFailureRateThreshold
	}
	if c.WaitDurationInOpenState <= 0 {
		c.WaitDurationInOpenState = DefaultWaitDurationInOpen
	}
	if c.SlidingWindowSize <= 0 {
		c.SlidingWindowSize = DefaultSlidingWindowSize
	}
	if c.MinimumNumberOfCalls <= 0 {
		c.MinimumNumberOfCalls = DefaultMinimumNumberOfCalls
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryWaitDuration <= 0 {
		c.RetryWaitDuration = DefaultRetryWaitDuration
	}
	if c.TimeoutDuration <= 0 {
		c.TimeoutDuration = DefaultTimeoutDuration
	}
	if c.MaxConcurrentCalls <= 0 {
		c.MaxConcurrentCalls = DefaultMaxConcurrentCalls
	}
	// MaxBulkheadWaitDuration defaults to 0: reject immediately when full.
	return c
}

// retryable reports whether a failure of the given kind may be retried.
func (c Config) retryable(k Kind) bool {
	if len(c.RetryableKinds) == 0 {
		return true
	}
	for _, rk := range c.RetryableKinds {
		if rk == k {
			return true
		}
	}
	return false
}
