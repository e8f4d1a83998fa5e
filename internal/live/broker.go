// Package live delivers order snapshots to subscribers whenever the order
// store changes. Each subscriber holds at most one pending snapshot; a newer
// snapshot replaces an unread one.
package live

import (
	"context"
	"sync"

	"brickDelivery/internal/lifecycle"
	"brickDelivery/internal/logger"
	"brickDelivery/models"
)

// Source is the read side of the order store used to build snapshots.
type Source interface {
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.Order, error)
}

// Query selects what a subscriber watches: every order, or one customer's orders.
type Query struct {
	All    bool
	UserID int64
}

// AllOrders watches every order and carries aggregate stats.
func AllOrders() Query { return Query{All: true} }

// UserOrders watches the orders placed by one customer.
func UserOrders(userID int64) Query { return Query{UserID: userID} }

// Snapshot is the full result of a query at one point in time.
type Snapshot struct {
	Orders []models.Order   `json:"orders"`
	Stats  *lifecycle.Stats `json:"stats,omitempty"`
}

type subscriber struct {
	q      Query
	ch     chan Snapshot
	mu     sync.Mutex
	closed bool
	// seq is the refresh generation of the last delivered snapshot.
	seq uint64
}

// deliver replaces any unread snapshot with snap unless a newer refresh
// already reached this subscriber.
func (s *subscriber) deliver(snap Snapshot, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq < s.seq {
		return
	}
	s.seq = seq
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Broker fans order snapshots out to subscribers. Every refresh takes a
// generation number before querying, so a slow query never overwrites the
// result of a later one.
type Broker struct {
	src  Source
	log  logger.Logger
	mu   sync.Mutex
	next int
	seq  uint64
	subs map[int]*subscriber
}

func NewBroker(src Source, log logger.Logger) *Broker {
	if log == nil {
		log = logger.Nop()
	}
	return &Broker{src: src, log: log, subs: map[int]*subscriber{}}
}

// Subscribe registers q and sends the initial snapshot. The channel is closed
// when ctx is done or cancel is called.
func (b *Broker) Subscribe(ctx context.Context, q Query) (<-chan Snapshot, func()) {
	sub := &subscriber{q: q, ch: make(chan Snapshot, 1)}
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	seq := b.nextSeq()
	b.mu.Unlock()

	stopped := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stopped)
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stopped:
		}
	}()

	if snap, err := b.query(ctx, q); err == nil {
		sub.deliver(snap, seq)
	} else {
		b.log.Warn("initial snapshot failed", "all", q.All, "user_id", q.UserID, "err", err)
	}
	return sub.ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Notify re-queries the store once per distinct query and pushes the result
// to every matching subscriber.
func (b *Broker) Notify(ctx context.Context) {
	b.mu.Lock()
	seq := b.nextSeq()
	groups := map[Query][]*subscriber{}
	for _, s := range b.subs {
		groups[s.q] = append(groups[s.q], s)
	}
	b.mu.Unlock()

	for q, subs := range groups {
		snap, err := b.query(ctx, q)
		if err != nil {
			b.log.Warn("snapshot refresh failed", "all", q.All, "user_id", q.UserID, "err", err)
			continue
		}
		for _, s := range subs {
			s.deliver(snap, seq)
		}
	}
}

// nextSeq must be called with b.mu held.
func (b *Broker) nextSeq() uint64 {
	b.seq++
	return b.seq
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = map[int]*subscriber{}
	b.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}

func (b *Broker) query(ctx context.Context, q Query) (Snapshot, error) {
	if q.All {
		list, err := b.src.ListAll(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		stats := lifecycle.Summarize(list)
		return Snapshot{Orders: list, Stats: &stats}, nil
	}
	list, err := b.src.ListByUserID(ctx, q.UserID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Orders: list}, nil
}
