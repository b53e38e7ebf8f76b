package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/callguard/resilience"
)

// BreakerChecker reports health based on the circuit breakers in a
// resilience registry. Any open circuit makes the check unhealthy; any
// half-open circuit (with none open) makes it degraded. The per-policy
// snapshots are attached as details so a /health endpoint exposes the
// registry's full metrics view.
type BreakerChecker struct {
	registry *resilience.Registry
}

// NewBreakerChecker creates a checker over the given registry.
func NewBreakerChecker(reg *resilience.Registry) *BreakerChecker {
	return &BreakerChecker{registry: reg}
}

// Name returns "breakers".
func (c *BreakerChecker) Name() string {
	return "breakers"
}

// Check inspects every registered policy's snapshot.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	snapshots := c.registry.Snapshots()

	var open, halfOpen []string
	details := make(map[string]any, len(snapshots))
	for name, snap := range snapshots {
		details[name] = map[string]any{
			"state":            snap.State.String(),
			"window_successes": snap.WindowSuccesses,
			"window_failures":  snap.WindowFailures,
			"active_calls":     snap.ActiveCalls,
			"rejected":         snap.Rejected,
			"last_attempts":    snap.LastAttempts,
		}
		switch snap.State {
		case resilience.StateOpen:
			open = append(open, name)
		case resilience.StateHalfOpen:
			halfOpen = append(halfOpen, name)
		}
	}

	switch {
	case len(open) > 0:
		msg := fmt.Sprintf("circuits open: %s", strings.Join(open, ", "))
		return Unhealthy(msg, ErrCircuitsOpen).WithDetails(details)
	case len(halfOpen) > 0:
		msg := fmt.Sprintf("circuits probing recovery: %s", strings.Join(halfOpen, ", "))
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("%d policies closed", len(snapshots))).WithDetails(details)
	}
}
