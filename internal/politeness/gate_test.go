package politeness

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tablecrawl/tablecrawl/internal/config"
)

// TestGateMinInterval tests that permits for one host are spaced by at
// least the configured interval under concurrent load.
func TestGateMinInterval(t *testing.T) {
	t.Parallel()

	const interval = 50 * time.Millisecond
	gate := New(4, interval)

	var mu sync.Mutex
	var grants []time.Time

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := gate.Acquire(context.Background(), "example.com")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			mu.Lock()
			grants = append(grants, time.Now())
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(grants) != 5 {
		t.Fatalf("expected 5 grants, got %d", len(grants))
	}
	for i := 1; i < len(grants); i++ {
		for j := range i {
			gap := grants[i].Sub(grants[j])
			if gap < 0 {
				gap = -gap
			}
			// Allow a small scheduling tolerance below the nominal interval.
			if gap < interval-5*time.Millisecond {
				t.Errorf("grants %d and %d only %v apart, want >= %v", j, i, gap, interval)
			}
		}
	}
}

// TestGateConcurrencyCap tests that no more than the cap is in flight.
func TestGateConcurrencyCap(t *testing.T) {
	t.Parallel()

	gate := New(2, 0)

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := gate.Acquire(context.Background(), "example.com")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer release()

			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInFlight > 2 {
		t.Errorf("observed %d concurrent permits, cap is 2", maxInFlight)
	}
}

// TestGateHostsAreIndependent tests that one host's limiter does not delay
// another host.
func TestGateHostsAreIndependent(t *testing.T) {
	t.Parallel()

	gate := New(1, time.Second)

	// First grant for each host comes from a full bucket, so two different
	// hosts should both acquire immediately.
	start := time.Now()
	for _, host := range []string{"a.example.com", "b.example.com"} {
		release, err := gate.Acquire(context.Background(), host)
		if err != nil {
			t.Fatalf("acquire for %s failed: %v", host, err)
		}
		release()
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("independent hosts took %v, expected immediate grants", elapsed)
	}
}

// TestGateContextCancellation tests that a blocked acquire aborts when the
// context is cancelled and holds no permit afterwards.
func TestGateContextCancellation(t *testing.T) {
	t.Parallel()

	gate := New(1, 0)

	release, err := gate.Acquire(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := gate.Acquire(ctx, "example.com"); err == nil {
		t.Fatal("expected blocked acquire to fail on context expiry")
	}

	// Releasing the original permit must make the slot available again.
	release()
	release() // double release is a no-op

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	release2, err := gate.Acquire(ctx2, "example.com")
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release2()
}

// TestGateProfileOverrides tests per-host profile overrides.
func TestGateProfileOverrides(t *testing.T) {
	t.Parallel()

	profiles := &config.File{
		Hosts: map[string]config.HostProfile{
			"slow.example.com": {MinInterval: time.Hour, MaxConcurrency: 1},
		},
	}
	gate := New(4, 0, WithProfiles(profiles))

	// The overridden host gets one immediate grant (full bucket), then a
	// one-hour spacing; a second acquire must block.
	release, err := gate.Acquire(context.Background(), "slow.example.com")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := gate.Acquire(ctx, "slow.example.com"); err == nil {
		t.Fatal("expected second acquire to block under profile interval")
	}

	// Hosts without a profile keep the defaults.
	release, err = gate.Acquire(context.Background(), "fast.example.com")
	if err != nil {
		t.Fatalf("default host acquire failed: %v", err)
	}
	release()
}
