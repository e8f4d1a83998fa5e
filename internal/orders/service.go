// Package orders ties the order store to the lifecycle policy and the live
// broker. Every mutation that succeeds is followed by a broker notification.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/lifecycle"
	"brickDelivery/internal/logger"
	"brickDelivery/models"
	"brickDelivery/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Publisher is told when the order store changed.
type Publisher interface {
	Notify(ctx context.Context)
}

type Service struct {
	store  repository.OrderStore
	policy lifecycle.Policy
	pub    Publisher
	log    logger.Logger
}

func NewService(store repository.OrderStore, policy lifecycle.Policy, pub Publisher, log logger.Logger) *Service {
	if policy == nil {
		policy = lifecycle.Permissive
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, policy: policy, pub: pub, log: log}
}

// Policy returns the active transition policy.
func (s *Service) Policy() lifecycle.Policy { return s.policy }

// Place persists a new order with status pending.
func (s *Service) Place(ctx context.Context, o *models.Order) (*models.Order, error) {
	o.Status = models.OrderStatusPending
	created, err := s.store.Create(ctx, o)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not save the order, please try again", err)
	}
	s.log.Info("order placed", "order_id", created.ID, "ref", created.Ref, "user_id", created.UserID, "total", created.Total.String())
	s.publish(ctx)
	return created, nil
}

// UpdateStatus moves an order to status to when the policy allows it.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", to))
	}
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(o.Status, to) {
		return nil, apperr.New(apperr.KindConflict, fmt.Sprintf("cannot move order from %s to %s", o.Status, to))
	}
	if err := s.store.UpdateStatus(ctx, id, to); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "could not update the order", err)
	}
	s.log.Info("order status changed", "order_id", id, "from", o.Status, "to", to, "policy", s.policy.Name())
	o.Status = to
	s.publish(ctx)
	return o, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		return apperr.Wrap(apperr.KindPersistence, "could not delete the order", err)
	}
	s.log.Info("order deleted", "order_id", id)
	s.publish(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id int64) (*models.Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not load the order", err)
	}
	if o == nil {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	return o, nil
}

// ListForUser returns a customer's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	list, err := s.store.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not load orders", err)
	}
	return list, nil
}

// AdminFilter is the admin listing request as received from a client.
type AdminFilter struct {
	Statuses []string
	UserID   *int64
	From     string // YYYY-MM-DD or placement layout, inclusive
	To       string
	PageSize int
	Cursor   string
}

type Page struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ListAdmin returns one page of orders matching f.
func (s *Service) ListAdmin(ctx context.Context, f AdminFilter) (Page, error) {
	p, err := f.params()
	if err != nil {
		return Page{}, err
	}
	list, err := s.store.ListAdmin(ctx, p)
	if err != nil {
		return Page{}, apperr.Wrap(apperr.KindPersistence, "could not load orders", err)
	}
	size := p.PageSize
	switch {
	case size <= 0:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	return Page{Orders: list, NextCursor: repository.NextCursor(list, size)}, nil
}

func (f AdminFilter) params() (repository.ListOrdersAdminParams, error) {
	fe := apperr.FieldErrors{}
	p := repository.ListOrdersAdminParams{UserID: f.UserID, PageSize: f.PageSize}
	for _, raw := range f.Statuses {
		st := models.OrderStatus(raw)
		if !st.Valid() {
			fe.Add("status", fmt.Sprintf("unknown status %q", raw))
			continue
		}
		p.Statuses = append(p.Statuses, st)
	}
	if f.From != "" {
		v, err := normalizeBound(f.From, false)
		if err != nil {
			fe.Add("from", "expected YYYY-MM-DD")
		} else {
			p.PlacementFrom = &v
		}
	}
	if f.To != "" {
		v, err := normalizeBound(f.To, true)
		if err != nil {
			fe.Add("to", "expected YYYY-MM-DD")
		} else {
			p.PlacementTo = &v
		}
	}
	if f.Cursor != "" {
		sec, id, err := repository.DecodeCursor(f.Cursor)
		if err != nil {
			fe.Add("cursor", "invalid cursor")
		} else {
			p.AfterSeconds, p.AfterID = sec, id
		}
	}
	if f.PageSize < 0 {
		fe.Add("page_size", "must not be negative")
	}
	return p, fe.Err()
}

// normalizeBound turns a date into an inclusive placement bound.
func normalizeBound(v string, end bool) (string, error) {
	if t, err := time.Parse(repository.PlacementLayout, v); err == nil {
		return t.Format(repository.PlacementLayout), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return "", err
	}
	if end {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.Format(repository.PlacementLayout), nil
}

// Stats summarizes every order in the store.
func (s *Service) Stats(ctx context.Context) (lifecycle.Stats, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return lifecycle.Stats{}, apperr.Wrap(apperr.KindPersistence, "could not load orders", err)
	}
	return lifecycle.Summarize(list), nil
}

func (s *Service) publish(ctx context.Context) {
	if s.pub == nil {
		return
	}
	// The mutation already happened; a cancelled request must not stop the refresh.
	s.pub.Notify(context.WithoutCancel(ctx))
}
