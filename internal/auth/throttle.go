package auth

import (
	"fmt"
	"math"
	"sync"
	"time"

	"brickDelivery/internal/apperr"
)

// ThrottleCooldownCap bounds the wait after repeated failures.
const ThrottleCooldownCap = 30 * time.Second

type throttleEntry struct {
	failures      int
	cooldownUntil time.Time
	inflight      bool
}

// Throttle slows down repeated failed logins per client key. After the n-th
// consecutive failure the client waits min(30, 2^n) seconds.
type Throttle struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*throttleEntry
}

func NewThrottle() *Throttle {
	return &Throttle{now: time.Now, entries: map[string]*throttleEntry{}}
}

// Wait returns how long key must wait before trying again, 0 if it may try now.
func (t *Throttle) Wait(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return 0
	}
	if d := e.cooldownUntil.Sub(t.now()); d > 0 {
		return d
	}
	return 0
}

// Check fails with a Throttled error while key is cooling down.
func (t *Throttle) Check(key string) error {
	return throttled(t.Wait(key))
}

// Attempt reserves the next try for key. It fails while key is cooling down
// or another attempt for key has not yet reported Fail or Success, so
// parallel guesses from one client cannot all slip through the same window.
func (t *Throttle) Attempt(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &throttleEntry{}
		t.entries[key] = e
	}
	if e.inflight {
		return apperr.New(apperr.KindThrottled, "another attempt is in progress")
	}
	if err := throttled(e.cooldownUntil.Sub(t.now())); err != nil {
		return err
	}
	e.inflight = true
	return nil
}

// Fail records a failed attempt and returns the new cooldown.
func (t *Throttle) Fail(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &throttleEntry{}
		t.entries[key] = e
	}
	e.inflight = false
	e.failures++
	d := cooldown(e.failures)
	e.cooldownUntil = t.now().Add(d)
	return d
}

// Success clears the failure history of key.
func (t *Throttle) Success(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Sweep forgets keys whose cooldown ended more than idle ago and returns how
// many were dropped.
func (t *Throttle) Sweep(idle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-idle)
	n := 0
	for k, e := range t.entries {
		if !e.inflight && e.cooldownUntil.Before(cutoff) {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

func throttled(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	secs := int(math.Ceil(d.Seconds()))
	return apperr.New(apperr.KindThrottled, fmt.Sprintf("too many attempts, try again in %d seconds", secs))
}

func cooldown(failures int) time.Duration {
	if failures >= 5 {
		return ThrottleCooldownCap
	}
	d := time.Duration(1<<failures) * time.Second
	if d > ThrottleCooldownCap {
		return ThrottleCooldownCap
	}
	return d
}
