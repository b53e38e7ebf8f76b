package resilience

import (
	"context"
	"sort"
	"sync"

	"github.com/jonwraymond/callguard/observe"
)

// Registry owns the name-to-policy mapping. It is an explicit object rather
// than package-level state: each service's startup path creates one and
// passes it to whatever makes outbound calls. Entries persist for the life
// of the registry; there is no eviction.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]*Policy

	logger  observe.Logger
	metrics observe.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a structured logger. Policy creation, circuit state
// changes, and bulkhead rejections are logged.
func WithLogger(l observe.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithMetrics attaches a call-metrics recorder. Every terminal call outcome
// and every circuit state change is recorded.
func WithMetrics(m observe.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty policy registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{policies: make(map[string]*Policy)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the policy registered under name, creating it from
// cfg (defaults applied to unset fields) if it does not exist. Creation is
// first-writer-wins: when two callers race on an unregistered name, exactly
// one policy survives and both observe the same instance; the loser's cfg
// is discarded.
func (r *Registry) GetOrCreate(name string, cfg Config) *Policy {
	r.mu.RLock()
	p, ok := r.policies[name]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.policies[name]; ok {
		return p
	}

	p = newPolicy(name, cfg, r.logger, r.metrics)
	r.policies[name] = p

	if r.logger != nil {
		effective := p.Config()
		r.logger.Info(context.Background(), "policy created",
			observe.Field{Key: "policy", Value: name},
			observe.Field{Key: "failure_rate_threshold", Value: effective.FailureRateThreshold},
			observe.Field{Key: "sliding_window_size", Value: effective.SlidingWindowSize},
			observe.Field{Key: "max_attempts", Value: effective.MaxAttempts},
			observe.Field{Key: "timeout", Value: effective.TimeoutDuration.String()},
			observe.Field{Key: "max_concurrent_calls", Value: effective.MaxConcurrentCalls})
	}

	return p
}

// Get returns the policy registered under name, if any.
func (r *Registry) Get(name string) (*Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	return p, ok
}

// Names returns the registered policy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs op under the named policy, creating it with defaults if it
// does not exist yet. This is the sole entry point for resilient calls.
func (r *Registry) Execute(ctx context.Context, name string, op Operation) error {
	return r.GetOrCreate(name, Config{}).Execute(ctx, op)
}

// ExecuteWithConfig runs op under the named policy, creating it from cfg if
// it does not exist yet. If the policy already exists, cfg is ignored.
func (r *Registry) ExecuteWithConfig(ctx context.Context, name string, cfg Config, op Operation) error {
	return r.GetOrCreate(name, cfg).Execute(ctx, op)
}

// Do runs a value-returning unit of work under the named policy.
func Do[T any](ctx context.Context, r *Registry, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
