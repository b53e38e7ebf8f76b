package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testPolicy(cfg Config) *Policy {
	return newPolicy("test", cfg, nil, nil)
}

func TestPolicy_Success(t *testing.T) {
	p := testPolicy(Config{})

	executed := false
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("unit of work was not executed")
	}

	snap := p.Snapshot()
	if snap.WindowSuccesses != 1 || snap.WindowFailures != 0 {
		t.Errorf("window = (%d, %d), want (1, 0)", snap.WindowSuccesses, snap.WindowFailures)
	}
}

func TestPolicy_RetriesExactlyMaxAttempts(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:       3,
		RetryWaitDuration: time.Millisecond,
	})

	attempts := 0
	testErr := errors.New("always fails")
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return testErr
	})

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Execute() error = %v, want ErrRetriesExhausted", err)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("error does not wrap the last attempt failure: %v", err)
	}

	if got := p.Snapshot().LastAttempts; got != 3 {
		t.Errorf("LastAttempts = %d, want 3", got)
	}
}

func TestPolicy_LinearBackoff(t *testing.T) {
	base := 10 * time.Millisecond
	p := testPolicy(Config{
		MaxAttempts:       3,
		RetryWaitDuration: base,
	})

	start := time.Now()
	_ = p.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	})
	elapsed := time.Since(start)

	// Waits are base*1 and base*2 between the three attempts.
	if want := 3 * base; elapsed < want {
		t.Errorf("elapsed = %v, want at least %v of backoff", elapsed, want)
	}
}

func TestPolicy_SucceedsAfterRetry(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:       3,
		RetryWaitDuration: time.Millisecond,
	})

	attempts := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}

	// One terminal outcome, recorded once: a success.
	snap := p.Snapshot()
	if snap.WindowSuccesses != 1 || snap.WindowFailures != 0 {
		t.Errorf("window = (%d, %d), want (1, 0)", snap.WindowSuccesses, snap.WindowFailures)
	}
}

func TestPolicy_NonRetryableStopsImmediately(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:       5,
		RetryWaitDuration: time.Millisecond,
		RetryableKinds:    []Kind{KindTimeout},
	})

	attempts := 0
	testErr := errors.New("not a timeout")
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return testErr
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Execute() error = %v, want the underlying error", err)
	}
	if errors.Is(err, ErrRetriesExhausted) {
		t.Error("non-retryable failure should not be wrapped as retries exhausted")
	}
}

func TestPolicy_Timeout(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:     1,
		TimeoutDuration: 20 * time.Millisecond,
	})

	done := make(chan struct{})
	start := time.Now()
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		defer close(done)
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
	// Caller unblocked near the timeout, not when the work finishes.
	if elapsed > 100*time.Millisecond {
		t.Errorf("caller unblocked after %v, want about 20ms", elapsed)
	}

	// Timed-out attempts count as breaker failure samples.
	snap := p.Snapshot()
	if snap.WindowFailures != 1 {
		t.Errorf("WindowFailures = %d, want 1", snap.WindowFailures)
	}

	// The abandoned work keeps running; wait for it so the test is clean.
	<-done
}

func TestPolicy_TimeoutPerAttempt(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:       2,
		RetryWaitDuration: time.Millisecond,
		TimeoutDuration:   30 * time.Millisecond,
	})

	var calls atomic.Int32
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		// First attempt exceeds its budget; second finishes inside a fresh one.
		if calls.Add(1) == 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		}
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want nil (fresh budget per attempt)", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestPolicy_CircuitOpenFailsFast(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:             1,
		FailureRateThreshold:    50,
		MinimumNumberOfCalls:    1,
		SlidingWindowSize:       1,
		WaitDurationInOpenState: time.Minute,
	})

	// Open the circuit with one failure.
	_ = p.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	if p.State() != StateOpen {
		t.Fatalf("State() = %v, want open", p.State())
	}

	before := p.Snapshot()

	err := p.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("unit of work must not run while the circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}

	// A denied call is not a fresh failure sample.
	after := p.Snapshot()
	if after.WindowSuccesses != before.WindowSuccesses || after.WindowFailures != before.WindowFailures {
		t.Errorf("window changed on denied call: before (%d, %d), after (%d, %d)",
			before.WindowSuccesses, before.WindowFailures,
			after.WindowSuccesses, after.WindowFailures)
	}
}

func TestPolicy_CircuitOpensMidRetrySequence(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:             3,
		RetryWaitDuration:       40 * time.Millisecond,
		FailureRateThreshold:    50,
		MinimumNumberOfCalls:    1,
		SlidingWindowSize:       1,
		WaitDurationInOpenState: time.Minute,
	})

	started := make(chan struct{})
	result := make(chan error, 1)
	var attempts atomic.Int32

	go func() {
		result <- p.Execute(context.Background(), func(ctx context.Context) error {
			attempts.Add(1)
			close(started)
			return errors.New("fail")
		})
	}()

	// While the call backs off, a concurrent completion opens the circuit,
	// so the next attempt is denied.
	<-started
	p.Breaker().Record(false)
	if p.State() != StateOpen {
		t.Fatalf("State() = %v, want open", p.State())
	}

	err := <-result
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (remaining attempts denied)", got)
	}
}

func TestPolicy_BulkheadReleaseOnEveryPath(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := testPolicy(Config{MaxConcurrentCalls: 2})
		_ = p.Execute(context.Background(), func(ctx context.Context) error { return nil })
		if got := p.Snapshot().ActiveCalls; got != 0 {
			t.Errorf("ActiveCalls = %d, want 0", got)
		}
	})

	t.Run("failure", func(t *testing.T) {
		p := testPolicy(Config{MaxConcurrentCalls: 2, MaxAttempts: 1})
		_ = p.Execute(context.Background(), func(ctx context.Context) error {
			return errors.New("fail")
		})
		if got := p.Snapshot().ActiveCalls; got != 0 {
			t.Errorf("ActiveCalls = %d, want 0", got)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		p := testPolicy(Config{
			MaxConcurrentCalls: 2,
			MaxAttempts:        1,
			TimeoutDuration:    10 * time.Millisecond,
		})
		_ = p.Execute(context.Background(), func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		if got := p.Snapshot().ActiveCalls; got != 0 {
			t.Errorf("ActiveCalls = %d, want 0", got)
		}
	})

	t.Run("circuit open", func(t *testing.T) {
		p := testPolicy(Config{
			MaxConcurrentCalls:   2,
			MaxAttempts:          1,
			MinimumNumberOfCalls: 1,
			SlidingWindowSize:    1,
		})
		_ = p.Execute(context.Background(), func(ctx context.Context) error {
			return errors.New("fail")
		})
		_ = p.Execute(context.Background(), func(ctx context.Context) error { return nil })
		if got := p.Snapshot().ActiveCalls; got != 0 {
			t.Errorf("ActiveCalls = %d, want 0", got)
		}
	})
}

func TestPolicy_BulkheadRejectionDoesNotFeedBreaker(t *testing.T) {
	p := testPolicy(Config{
		MaxConcurrentCalls:      1,
		MaxBulkheadWaitDuration: 0,
		MinimumNumberOfCalls:    1,
		SlidingWindowSize:       10,
	})

	release := make(chan struct{})
	holding := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.Execute(context.Background(), func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding
	err := p.Execute(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("Execute() error = %v, want ErrBulkheadFull", err)
	}

	close(release)
	wg.Wait()

	snap := p.Snapshot()
	if snap.WindowFailures != 0 {
		t.Errorf("WindowFailures = %d, want 0 (rejections are not failure samples)", snap.WindowFailures)
	}
	if snap.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", snap.Rejected)
	}
}

func TestPolicy_ConcurrentCallsWithinLimit(t *testing.T) {
	p := testPolicy(Config{MaxConcurrentCalls: 3, MaxAttempts: 1})

	var peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Execute(context.Background(), func(ctx context.Context) error {
				if active := p.Snapshot().ActiveCalls; active > peak.Load() {
					peak.Store(active)
				}
				time.Sleep(time.Millisecond)
				return nil
			})
		}()
	}
	wg.Wait()

	if peak.Load() > 3 {
		t.Errorf("peak active calls = %d, want at most 3", peak.Load())
	}
	if got := p.Snapshot().ActiveCalls; got != 0 {
		t.Errorf("ActiveCalls = %d, want 0", got)
	}
}

func TestPolicy_CallerCancellation(t *testing.T) {
	p := testPolicy(Config{
		MaxAttempts:       3,
		RetryWaitDuration: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := p.Execute(ctx, func(ctx context.Context) error {
		return errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	// Cancellation cuts the backoff wait short.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Execute() returned after %v, want prompt return on cancel", elapsed)
	}
}

// openTestPolicy returns a policy whose circuit is open with a short
// open-wait, ready for half-open probe scenarios.
func openTestPolicy(t *testing.T, cfg Config) *Policy {
	t.Helper()
	if cfg.SlidingWindowSize == 0 {
		cfg.SlidingWindowSize = 2
	}
	if cfg.MinimumNumberOfCalls == 0 {
		cfg.MinimumNumberOfCalls = 2
	}
	if cfg.WaitDurationInOpenState == 0 {
		cfg.WaitDurationInOpenState = 30 * time.Millisecond
	}
	p := testPolicy(cfg)
	p.Breaker().Record(false)
	p.Breaker().Record(false)
	if p.State() != StateOpen {
		t.Fatalf("setup: state = %v, want open", p.State())
	}
	return p
}

func TestPolicy_HalfOpenProbeFailureReopens(t *testing.T) {
	p := openTestPolicy(t, Config{
		MaxAttempts:       3,
		RetryWaitDuration: time.Millisecond,
	})

	time.Sleep(50 * time.Millisecond)

	// The first call after the open wait holds the half-open probe. Its
	// first failure must end the call and re-open the circuit; the probe
	// is not retried against a dependency that just failed again.
	attempts := 0
	probeErr := errors.New("still down")
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return probeErr
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if !errors.Is(err, probeErr) {
		t.Errorf("Execute() error = %v, want the probe failure", err)
	}
	if errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, probe call must not report ErrCircuitOpen", err)
	}
	if got := p.State(); got != StateOpen {
		t.Errorf("state after failed probe = %v, want open", got)
	}

	// The open-wait timer restarted with the failed probe.
	err = p.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("unit of work ran while the circuit was open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}

	// After another full open wait the breaker probes again, and a
	// successful probe recovers the circuit.
	time.Sleep(50 * time.Millisecond)
	err = p.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v, want recovery", err)
	}
	if got := p.State(); got != StateClosed {
		t.Errorf("state after successful probe = %v, want closed", got)
	}
}

func TestPolicy_HalfOpenProbeSuccessCloses(t *testing.T) {
	p := openTestPolicy(t, Config{
		MaxAttempts:       3,
		RetryWaitDuration: time.Millisecond,
	})

	time.Sleep(50 * time.Millisecond)

	err := p.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := p.State(); got != StateClosed {
		t.Errorf("state after successful probe = %v, want closed", got)
	}

	// Recovery cleared the window; the old failures cannot re-open it.
	snap := p.Snapshot()
	if snap.WindowFailures != 0 {
		t.Errorf("WindowFailures = %d, want 0 after recovery", snap.WindowFailures)
	}
}

func TestPolicy_CancelledProbeReleasesProbe(t *testing.T) {
	p := openTestPolicy(t, Config{
		MaxAttempts:       3,
		RetryWaitDuration: time.Millisecond,
	})

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}

	// The cancelled probe produced no outcome: the circuit stays half-open
	// and the next call must be admitted as a fresh probe.
	if got := p.State(); got != StateHalfOpen {
		t.Errorf("state after cancelled probe = %v, want half-open", got)
	}
	err = p.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v, want fresh probe admitted", err)
	}
	if got := p.State(); got != StateClosed {
		t.Errorf("state after fresh probe = %v, want closed", got)
	}
}
