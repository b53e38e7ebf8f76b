package resilience

// Snapshot is a read-only view of one policy's current state and counters,
// computed on demand. Intended for health checks and metrics collectors.
type Snapshot struct {
	// Policy is the policy name.
	Policy string

	// State is the circuit state at the time of the snapshot.
	State State

	// WindowSuccesses and WindowFailures are the outcome totals currently
	// held in the rolling window.
	WindowSuccesses int
	WindowFailures  int

	// LastAttempts is the attempt count of the most recently completed call.
	LastAttempts int

	// ActiveCalls is the number of admitted calls currently in flight.
	ActiveCalls int64

	// MaxConcurrentCalls is the bulkhead limit.
	MaxConcurrentCalls int64

	// Rejected is the total number of bulkhead rejections.
	Rejected int64
}

// Snapshot returns the policy's current state and counters.
func (p *Policy) Snapshot() Snapshot {
	successes, failures := p.breaker.Counts()
	return Snapshot{
		Policy:             p.name,
		State:              p.breaker.State(),
		WindowSuccesses:    successes,
		WindowFailures:     failures,
		LastAttempts:       int(p.lastAttempts.Load()),
		ActiveCalls:        p.bulkhead.Active(),
		MaxConcurrentCalls: p.bulkhead.Max(),
		Rejected:           p.bulkhead.Rejected(),
	}
}

// Snapshot returns the named policy's snapshot, or ErrPolicyNotFound.
func (r *Registry) Snapshot(name string) (Snapshot, error) {
	p, ok := r.Get(name)
	if !ok {
		return Snapshot{}, ErrPolicyNotFound
	}
	return p.Snapshot(), nil
}

// Snapshots returns a snapshot for every registered policy.
func (r *Registry) Snapshots() map[string]Snapshot {
	r.mu.RLock()
	policies := make([]*Policy, 0, len(r.policies))
	for _, p := range r.policies {
		policies = append(policies, p)
	}
	r.mu.RUnlock()

	snaps := make(map[string]Snapshot, len(policies))
	for _, p := range policies {
		snaps[p.name] = p.Snapshot()
	}
	return snaps
}
