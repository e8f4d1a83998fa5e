// Package booking turns a customer's draft into a persisted order.
package booking

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/draft"
	"brickDelivery/internal/logger"
	"brickDelivery/internal/notify"
	"brickDelivery/models"
)

// Phase is the position of a submission in the workflow.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhasePersisting Phase = "persisting"
	PhaseNotifying  Phase = "notifying"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Observer is told about every phase change of one submission.
type Observer func(Phase)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Placer persists a validated order.
type Placer interface {
	Place(ctx context.Context, o *models.Order) (*models.Order, error)
}

type Workflow struct {
	reducer       draft.Reducer
	placer        Placer
	notifier      notify.Dispatcher
	log           logger.Logger
	minProcessing time.Duration
}

// NewWorkflow wires a workflow. notifier may be nil to skip notifications.
func NewWorkflow(reducer draft.Reducer, placer Placer, notifier notify.Dispatcher, log logger.Logger, minProcessing time.Duration) *Workflow {
	if log == nil {
		log = logger.Nop()
	}
	return &Workflow{reducer: reducer, placer: placer, notifier: notifier, log: log, minProcessing: minProcessing}
}

// Submit validates d, persists it as a pending order and sends a best-effort
// notification. d is never modified; on failure the caller keeps it for a retry.
func (w *Workflow) Submit(ctx context.Context, user *models.User, d draft.State, observe Observer) (*models.Order, error) {
	if observe == nil {
		observe = func(Phase) {}
	}

	observe(PhaseValidating)
	priced, err := w.validate(user, d)
	if err != nil {
		observe(PhaseIdle)
		return nil, err
	}

	observe(PhasePersisting)
	started := time.Now()
	order, err := w.placer.Place(ctx, w.orderFrom(user, priced))
	if err != nil {
		w.log.Error("order persistence failed", "user_id", user.ID, "err", err)
		w.pace(ctx, started)
		observe(PhaseFailed)
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Wrap(apperr.KindPersistence, "could not save the order, please try again", err)
		}
		return nil, err
	}

	observe(PhaseNotifying)
	w.notify(ctx, order)
	w.pace(ctx, started)
	observe(PhaseComplete)
	return order, nil
}

// validate checks every field before anything is persisted and returns the
// draft with its pricing recomputed.
func (w *Workflow) validate(user *models.User, d draft.State) (draft.State, error) {
	if user == nil || user.ID == 0 {
		return d, apperr.New(apperr.KindAuthRequired, "please sign in to place an order")
	}
	fe := apperr.FieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		fe.Add("name", "name is required")
	}
	if !phonePattern.MatchString(strings.TrimSpace(d.Phone)) {
		fe.Add("phone", "phone must be 10 digits")
	}
	if email := strings.TrimSpace(d.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			fe.Add("email", "email is not valid")
		}
	}
	if d.Quantity <= 0 {
		fe.Add("quantity", "quantity must be a positive number")
	}
	if !d.HasLocation() {
		fe.Add("location", "choose a delivery location")
	}
	if _, ok := w.reducer.Catalog.Lookup(d.BrickCode); !ok {
		fe.Add("brick_code", "choose a brick type")
	}
	if !d.PaymentMethod.Valid() {
		fe.Add("payment_method", "choose a payment method")
	}
	if err := fe.Err(); err != nil {
		return d, err
	}
	priced := w.reducer.Recompute(d)
	if !priced.Derived.Priced {
		return d, apperr.Validation("quantity", "order could not be priced")
	}
	return priced, nil
}

func (w *Workflow) orderFrom(user *models.User, d draft.State) *models.Order {
	q := d.Derived.Quote
	return &models.Order{
		UserID:         user.ID,
		CustomerName:   strings.TrimSpace(d.Name),
		Phone:          strings.TrimSpace(d.Phone),
		Email:          strings.TrimSpace(d.Email),
		BrickCode:      d.BrickCode,
		Quantity:       d.Quantity,
		Lat:            d.Location.Lat,
		Lng:            d.Location.Lng,
		LocationLabel:  d.LocationLabel,
		DistanceKm:     q.DistanceKm,
		Trips:          q.Trips,
		UnitPrice:      q.UnitPrice,
		BrickSubtotal:  q.BrickSubtotal,
		DeliveryCharge: q.DeliveryCharge,
		Total:          q.Total,
		PaymentMethod:  d.PaymentMethod,
		PaymentProof:   d.PaymentProof,
		Status:         models.OrderStatusPending,
	}
}

func (w *Workflow) notify(ctx context.Context, o *models.Order) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Send(ctx, notify.TemplateOrderPlaced, OrderVars(o, w.reducer.Catalog)); err != nil {
		nerr := apperr.Wrap(apperr.KindNotification, "order notification failed", err)
		w.log.Warn("notification failed", "order_id", o.ID, "ref", o.Ref, "kind", nerr.Kind, "err", err)
	}
}

// pace holds the result back until the minimum processing time has passed.
func (w *Workflow) pace(ctx context.Context, started time.Time) {
	remaining := w.minProcessing - time.Since(started)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// OrderVars flattens o into template variables.
func OrderVars(o *models.Order, catalog models.Catalog) map[string]any {
	brick := o.BrickCode
	if b, ok := catalog.Lookup(o.BrickCode); ok {
		brick = b.Name
	}
	location := o.LocationLabel
	if location == "" {
		location = fmt.Sprintf("%.5f, %.5f", o.Lat, o.Lng)
	}
	return map[string]any{
		"ref":             o.Ref,
		"name":            o.CustomerName,
		"phone":           o.Phone,
		"email":           o.Email,
		"quantity":        o.Quantity,
		"brick":           brick,
		"unit_price":      o.UnitPrice.StringFixed(2),
		"location":        location,
		"distance_km":     fmt.Sprintf("%.1f", o.DistanceKm),
		"trips":           o.Trips,
		"delivery_charge": o.DeliveryCharge.StringFixed(2),
		"total":           o.Total.StringFixed(2),
		"payment_method":  string(o.PaymentMethod),
		"payment_proof":   o.PaymentProof,
	}
}
