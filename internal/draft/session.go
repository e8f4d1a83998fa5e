package draft

import (
	"context"
	"sync"
	"time"

	"brickDelivery/internal/geo"
)

// Reverser turns a coordinate into a human readable address.
type Reverser interface {
	Reverse(ctx context.Context, c geo.Coordinate) (string, error)
}

// Session is one customer's draft. Async lookups are keyed by a token so a
// response that arrives after a newer location edit is dropped.
type Session struct {
	mu      sync.Mutex
	reducer Reducer
	state   State
	lookup  uint64
	touched time.Time
}

// NewSession creates a session holding a fresh draft.
func NewSession(r Reducer) *Session {
	return &Session{reducer: r, state: r.New(), touched: time.Now()}
}

// State returns a copy of the current draft.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies actions in order and returns the resulting draft.
// Any location edit invalidates in-flight lookups.
func (s *Session) Dispatch(actions ...Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		switch a.(type) {
		case SetLocation, SetLocationLabel, Reset:
			s.lookup++
		}
		s.state = s.reducer.Reduce(s.state, a)
	}
	s.touched = time.Now()
	return s.state
}

// BeginLookup starts an async lookup and returns its token.
func (s *Session) BeginLookup() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookup++
	return s.lookup
}

// ResolveLookup applies a only if token is still the latest lookup.
func (s *Session) ResolveLookup(token uint64, a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.lookup {
		return false
	}
	s.state = s.reducer.Reduce(s.state, a)
	return true
}

// Locate moves the delivery point to c right away and resolves its address
// in the background. The returned channel reports whether the address was
// applied; failures and stale responses report false.
func (s *Session) Locate(ctx context.Context, c geo.Coordinate, rev Reverser, onErr func(error)) (State, <-chan bool) {
	s.mu.Lock()
	s.state = s.reducer.Reduce(s.state, SetLocation{Coordinate: c})
	s.lookup++
	token := s.lookup
	st := s.state
	s.touched = time.Now()
	s.mu.Unlock()

	done := make(chan bool, 1)
	if rev == nil {
		done <- false
		return st, done
	}
	go func() {
		label, err := rev.Reverse(ctx, c)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			done <- false
			return
		}
		done <- s.ResolveLookup(token, SetLocationLabel{Label: label})
	}()
	return st, done
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Store keeps one draft session per customer.
type Store struct {
	mu       sync.Mutex
	reducer  Reducer
	sessions map[int64]*Session
}

// NewStore creates an empty store.
func NewStore(r Reducer) *Store {
	return &Store{reducer: r, sessions: make(map[int64]*Session)}
}

// Get returns the customer's session, creating a fresh draft on first use.
func (st *Store) Get(userID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		s = NewSession(st.reducer)
		st.sessions[userID] = s
	}
	return s
}

// Replace swaps in a fresh draft, used after a successful submission.
func (st *Store) Replace(userID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := NewSession(st.reducer)
	st.sessions[userID] = s
	return s
}

// Discard drops the customer's draft.
func (st *Store) Discard(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
}

// Sweep discards drafts untouched for longer than maxIdle and returns how many were dropped.
func (st *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
