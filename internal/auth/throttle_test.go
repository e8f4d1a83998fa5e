package auth

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"brickDelivery/internal/apperr"
)

func TestThrottle_CooldownDoublesAndCaps(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	th := NewThrottle()
	th.now = clk.now

	want := []time.Duration{2, 4, 8, 16, 30, 30}
	for i, w := range want {
		if got := th.Fail("ip"); got != w*time.Second {
			t.Fatalf("failure %d: got %v want %v", i+1, got, w*time.Second)
		}
	}
	if err := th.Check("ip"); !apperr.Is(err, apperr.KindThrottled) {
		t.Fatalf("expected throttled, got %v", err)
	}
	if err := th.Check("other"); err != nil {
		t.Fatalf("other clients are unaffected: %v", err)
	}
	clk.advance(31 * time.Second)
	if err := th.Check("ip"); err != nil {
		t.Fatalf("cooldown should have passed: %v", err)
	}
	th.Success("ip")
	if got := th.Fail("ip"); got != 2*time.Second {
		t.Fatalf("success should reset the count, got %v", got)
	}
}

func TestThrottle_AttemptReservesOneTry(t *testing.T) {
	th := NewThrottle()
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if th.Attempt("ip") == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	if ok.Load() != 1 {
		t.Fatalf("%d attempts admitted, want 1", ok.Load())
	}
	if err := th.Attempt("ip"); !apperr.Is(err, apperr.KindThrottled) {
		t.Fatalf("pending attempt should block the next one, got %v", err)
	}
	th.Fail("ip")
	if err := th.Attempt("ip"); !apperr.Is(err, apperr.KindThrottled) {
		t.Fatalf("cooldown should apply after fail, got %v", err)
	}
}

func TestThrottle_AttemptAfterCooldown(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	th := NewThrottle()
	th.now = clk.now
	if err := th.Attempt("ip"); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	th.Fail("ip")
	clk.advance(3 * time.Second)
	if err := th.Attempt("ip"); err != nil {
		t.Fatalf("cooldown passed: %v", err)
	}
	th.Success("ip")
	if err := th.Attempt("ip"); err != nil {
		t.Fatalf("success clears history: %v", err)
	}
}

func TestThrottle_SweepForgetsQuietKeys(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	th := NewThrottle()
	th.now = clk.now
	th.Fail("old")
	_ = th.Attempt("pending")
	clk.advance(10 * time.Minute)
	th.Fail("recent")

	if n := th.Sweep(5 * time.Minute); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok := th.entries["old"]; ok {
		t.Fatalf("old entry should be gone")
	}
	if _, ok := th.entries["pending"]; !ok {
		t.Fatalf("in-flight entry must survive the sweep")
	}
	if _, ok := th.entries["recent"]; !ok {
		t.Fatalf("recent entry must survive the sweep")
	}
}
