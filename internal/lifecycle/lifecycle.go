// Package lifecycle holds the order status transition policies and the
// aggregate projections computed over a set of orders.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"brickDelivery/models"
)

// Policy decides whether an order may move from one status to another.
type Policy interface {
	Name() string
	Allow(from, to models.OrderStatus) bool
}

type permissive struct{}

// Permissive lets an admin set any known status from any other.
var Permissive Policy = permissive{}

func (permissive) Name() string { return "permissive" }

func (permissive) Allow(from, to models.OrderStatus) bool {
	return from.Valid() && to.Valid()
}

// AllowedTransitions is the forward-only order flow enforced by Strict.
var AllowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusOnTheWay, models.OrderStatusCancelled},
	models.OrderStatusOnTheWay:  {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

var allowedTransitionSet = buildTransitionSet(AllowedTransitions)

func buildTransitionSet(transitions map[models.OrderStatus][]models.OrderStatus) map[models.OrderStatus]map[models.OrderStatus]struct{} {
	set := make(map[models.OrderStatus]map[models.OrderStatus]struct{}, len(transitions))
	for from, tos := range transitions {
		next := make(map[models.OrderStatus]struct{}, len(tos))
		for _, to := range tos {
			next[to] = struct{}{}
		}
		set[from] = next
	}
	return set
}

// CanTransition reports whether from → to is part of the forward order flow.
func CanTransition(from, to models.OrderStatus) bool {
	next, ok := allowedTransitionSet[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

type strict struct{}

// Strict only allows the forward flow; terminal statuses are final.
var Strict Policy = strict{}

func (strict) Name() string { return "strict" }

func (strict) Allow(from, to models.OrderStatus) bool { return CanTransition(from, to) }

// PolicyByName resolves a configured policy name. Empty selects Permissive.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return nil, fmt.Errorf("unknown lifecycle policy %q", name)
	}
}

// Stats is a projection over a set of orders. It is never persisted.
type Stats struct {
	Orders         int                        `json:"orders"`
	Revenue        decimal.Decimal            `json:"revenue"`
	CommittedUnits int64                      `json:"committed_units"`
	ByStatus       map[models.OrderStatus]int `json:"by_status"`
}

// Summarize computes revenue from delivered orders and committed units from
// every order that is not cancelled.
func Summarize(orders []models.Order) Stats {
	s := Stats{Revenue: decimal.Zero, ByStatus: make(map[models.OrderStatus]int, len(models.OrderStatuses))}
	for _, st := range models.OrderStatuses {
		s.ByStatus[st] = 0
	}
	for _, o := range orders {
		s.Orders++
		s.ByStatus[o.Status]++
		if o.Status == models.OrderStatusDelivered {
			s.Revenue = s.Revenue.Add(o.Total)
		}
		if o.Status != models.OrderStatusCancelled {
			s.CommittedUnits += int64(o.Quantity)
		}
	}
	return s
}
