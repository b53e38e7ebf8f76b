package resilience

// rollingWindow records the last N call outcomes in a fixed-capacity ring.
// Eviction is oldest-first once capacity is reached. Not safe for concurrent
// use; the circuit breaker serializes access under its own mutex.
type rollingWindow struct {
	outcomes []bool // true = success
	next     int
	count    int
	failures int
}

func newRollingWindow(size int) *rollingWindow {
	return &rollingWindow{outcomes: make([]bool, size)}
}

// record appends an outcome, evicting the oldest once the window is full.
func (w *rollingWindow) record(success bool) {
	if w.count == len(w.outcomes) {
		if !w.outcomes[w.next] {
			w.failures--
		}
	} else {
		w.count++
	}
	w.outcomes[w.next] = success
	if !success {
		w.failures++
	}
	w.next = (w.next + 1) % len(w.outcomes)
}

// counts returns the success and failure totals currently in the window.
func (w *rollingWindow) counts() (successes, failures int) {
	return w.count - w.failures, w.failures
}

// failureRate returns the failure percentage (0-100) of the window.
// Returns 0 when the window is empty.
func (w *rollingWindow) failureRate() float64 {
	if w.count == 0 {
		return 0
	}
	return float64(w.failures) / float64(w.count) * 100
}

// reset discards every recorded outcome.
func (w *rollingWindow) reset() {
	for i := range w.outcomes {
		w.outcomes[i] = false
	}
	w.next = 0
	w.count = 0
	w.failures = 0
}
