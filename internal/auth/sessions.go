package auth

import (
	"sync"
	"time"

	"brickDelivery/internal/apperr"
)

// ChangeReason says why a session ended.
type ChangeReason string

const (
	ReasonSignedOut ChangeReason = "signed_out"
	ReasonExpired   ChangeReason = "expired"
)

// Change is broadcast to listeners when a session ends.
type Change struct {
	Token  string
	Name   string
	Reason ChangeReason
}

type session struct {
	name     string
	lastSeen time.Time
	expires  time.Time
}

// Sessions tracks activity per bearer token. A token idle for longer than the
// timeout, or explicitly signed out, is refused until it is replaced.
// Ended tokens are remembered until their own expiry; tokens without an exp
// claim are remembered for the life of the process.
type Sessions struct {
	mu        sync.Mutex
	idle      time.Duration
	now       func() time.Time
	active    map[string]*session
	ended     map[string]time.Time // token -> exp, zero for never
	listeners map[int]func(Change)
	nextID    int
}

func NewSessions(idle time.Duration) *Sessions {
	return &Sessions{
		idle:      idle,
		now:       time.Now,
		active:    map[string]*session{},
		ended:     map[string]time.Time{},
		listeners: map[int]func(Change){},
	}
}

// Touch records activity for p. It fails with AuthRequired when the token was
// signed out or has been idle past the timeout.
func (s *Sessions) Touch(p *Principal) error {
	now := s.now()
	s.mu.Lock()
	if _, gone := s.ended[p.Token]; gone {
		s.mu.Unlock()
		return apperr.New(apperr.KindAuthRequired, "session ended, please sign in again")
	}
	sess, ok := s.active[p.Token]
	if ok && s.idle > 0 && now.Sub(sess.lastSeen) > s.idle {
		delete(s.active, p.Token)
		s.ended[p.Token] = sess.expires
		listeners := s.snapshotListeners()
		s.mu.Unlock()
		broadcast(listeners, Change{Token: p.Token, Name: p.Name, Reason: ReasonExpired})
		return apperr.New(apperr.KindAuthRequired, "session expired after inactivity, please sign in again")
	}
	if !ok {
		sess = &session{name: p.Name, expires: p.ExpiresAt}
		s.active[p.Token] = sess
	}
	sess.lastSeen = now
	s.mu.Unlock()
	return nil
}

// Active reports whether token currently has a live session.
func (s *Sessions) Active(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[token]
	return ok
}

// SignOut ends the session of p and notifies listeners.
func (s *Sessions) SignOut(p *Principal) {
	s.end(p.Token, p.Name, p.ExpiresAt, ReasonSignedOut)
}

func (s *Sessions) end(token, name string, expires time.Time, reason ChangeReason) {
	s.mu.Lock()
	if _, gone := s.ended[token]; gone {
		s.mu.Unlock()
		return
	}
	delete(s.active, token)
	s.ended[token] = expires
	listeners := s.snapshotListeners()
	s.mu.Unlock()
	broadcast(listeners, Change{Token: token, Name: name, Reason: reason})
}

// Sweep expires idle sessions and forgets ended tokens whose JWT has expired.
func (s *Sessions) Sweep() int {
	now := s.now()
	s.mu.Lock()
	var expired []Change
	for tok, sess := range s.active {
		idle := s.idle > 0 && now.Sub(sess.lastSeen) > s.idle
		lapsed := !sess.expires.IsZero() && now.After(sess.expires)
		if idle || lapsed {
			delete(s.active, tok)
			s.ended[tok] = sess.expires
			expired = append(expired, Change{Token: tok, Name: sess.name, Reason: ReasonExpired})
		}
	}
	for tok, exp := range s.ended {
		if !exp.IsZero() && now.After(exp) {
			delete(s.ended, tok)
		}
	}
	listeners := s.snapshotListeners()
	s.mu.Unlock()
	for _, c := range expired {
		broadcast(listeners, c)
	}
	return len(expired)
}

// OnChange registers fn for session-end events and returns its unsubscribe func.
func (s *Sessions) OnChange(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Ended returns a channel closed once token's session ends. Call stop to release it.
func (s *Sessions) Ended(token string) (<-chan struct{}, func()) {
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := s.OnChange(func(c Change) {
		if c.Token == token {
			once.Do(func() { close(done) })
		}
	})
	return done, unsubscribe
}

func (s *Sessions) snapshotListeners() []func(Change) {
	out := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func broadcast(listeners []func(Change), c Change) {
	for _, fn := range listeners {
		fn(c)
	}
}
