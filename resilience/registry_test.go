package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistry_GetOrCreateReturnsSameInstance(t *testing.T) {
	reg := NewRegistry()

	p1 := reg.GetOrCreate("payments", Config{MaxAttempts: 2})
	p2 := reg.GetOrCreate("payments", Config{MaxAttempts: 9})

	if p1 != p2 {
		t.Error("GetOrCreate() returned different instances for the same name")
	}
	// First writer wins: the second config is discarded.
	if got := p2.Config().MaxAttempts; got != 2 {
		t.Errorf("MaxAttempts = %d, want 2", got)
	}
}

func TestRegistry_DefaultsApplied(t *testing.T) {
	reg := NewRegistry()

	cfg := reg.GetOrCreate("defaults", Config{}).Config()

	if cfg.FailureRateThreshold != 50 {
		t.Errorf("FailureRateThreshold = %v, want 50", cfg.FailureRateThreshold)
	}
	if cfg.WaitDurationInOpenState != 60*time.Second {
		t.Errorf("WaitDurationInOpenState = %v, want 60s", cfg.WaitDurationInOpenState)
	}
	if cfg.SlidingWindowSize != 10 {
		t.Errorf("SlidingWindowSize = %d, want 10", cfg.SlidingWindowSize)
	}
	if cfg.MinimumNumberOfCalls != 5 {
		t.Errorf("MinimumNumberOfCalls = %d, want 5", cfg.MinimumNumberOfCalls)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.RetryWaitDuration != time.Second {
		t.Errorf("RetryWaitDuration = %v, want 1s", cfg.RetryWaitDuration)
	}
	if cfg.TimeoutDuration != 5*time.Second {
		t.Errorf("TimeoutDuration = %v, want 5s", cfg.TimeoutDuration)
	}
	if cfg.MaxConcurrentCalls != 25 {
		t.Errorf("MaxConcurrentCalls = %d, want 25", cfg.MaxConcurrentCalls)
	}
	if cfg.MaxBulkheadWaitDuration != 0 {
		t.Errorf("MaxBulkheadWaitDuration = %v, want 0", cfg.MaxBulkheadWaitDuration)
	}
}

func TestRegistry_ConcurrentFirstCreation(t *testing.T) {
	reg := NewRegistry()

	const goroutines = 50
	policies := make([]*Policy, goroutines)

	var start sync.WaitGroup
	start.Add(1)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			policies[i] = reg.GetOrCreate("raced", Config{MaxAttempts: i + 1})
		}(i)
	}
	start.Done()
	wg.Wait()

	// Exactly one policy object survives; every caller observes it.
	for i := 1; i < goroutines; i++ {
		if policies[i] != policies[0] {
			t.Fatalf("goroutine %d observed a different policy instance", i)
		}
	}
	if len(reg.Names()) != 1 {
		t.Errorf("Names() = %v, want exactly one entry", reg.Names())
	}
}

func TestRegistry_Execute(t *testing.T) {
	reg := NewRegistry()

	err := reg.Execute(context.Background(), "analytics", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}

	if _, ok := reg.Get("analytics"); !ok {
		t.Error("Execute() did not register the policy")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	reg.GetOrCreate("c", Config{})
	reg.GetOrCreate("a", Config{})
	reg.GetOrCreate("b", Config{})

	names := reg.Names()
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistry_SnapshotNotFound(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Snapshot("missing")
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("Snapshot() error = %v, want ErrPolicyNotFound", err)
	}
}

func TestRegistry_Snapshots(t *testing.T) {
	reg := NewRegistry()

	_ = reg.Execute(context.Background(), "one", func(ctx context.Context) error { return nil })
	_ = reg.ExecuteWithConfig(context.Background(), "two", Config{MaxAttempts: 1}, func(ctx context.Context) error {
		return errors.New("fail")
	})

	snaps := reg.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("Snapshots() has %d entries, want 2", len(snaps))
	}
	if snaps["one"].WindowSuccesses != 1 {
		t.Errorf("one.WindowSuccesses = %d, want 1", snaps["one"].WindowSuccesses)
	}
	if snaps["two"].WindowFailures != 1 {
		t.Errorf("two.WindowFailures = %d, want 1", snaps["two"].WindowFailures)
	}
	if snaps["two"].LastAttempts != 1 {
		t.Errorf("two.LastAttempts = %d, want 1", snaps["two"].LastAttempts)
	}
}

func TestDo(t *testing.T) {
	reg := NewRegistry()

	got, err := Do(context.Background(), reg, "lookup", func(ctx context.Context) (string, error) {
		return "value", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "value" {
		t.Errorf("Do() = %q, want %q", got, "value")
	}

	testErr := errors.New("fail")
	reg.GetOrCreate("lookup-fail", Config{MaxAttempts: 1})
	_, err = Do(context.Background(), reg, "lookup-fail", func(ctx context.Context) (string, error) {
		return "ignored", testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("Do() error = %v, want wrapped %v", err, testErr)
	}
}
