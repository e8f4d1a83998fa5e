// Package draft holds the booking form a customer is filling in and keeps
// its derived pricing consistent with every input change.
package draft

import (
	"brickDelivery/internal/geo"
	"brickDelivery/internal/pricing"
	"brickDelivery/models"
)

// DefaultLocation is used until the customer picks a point or geolocation succeeds.
var DefaultLocation = geo.Coordinate{Lat: 27.7172, Lng: 85.3240}

// DefaultQuantity is one full truck.
const DefaultQuantity = pricing.TripSize

const (
	WarningSmallOrder   = "orders under 2000 bricks carry a disproportionate delivery cost"
	WarningUnknownBrick = "selected brick type is not in the catalog"
	WarningNoQuantity   = "quantity must be a positive number of bricks"
)

// State is the in-progress booking form.
type State struct {
	Name          string               `json:"name"`
	Phone         string               `json:"phone"`
	Email         string               `json:"email,omitempty"`
	BrickCode     string               `json:"brick_code"`
	Quantity      int                  `json:"quantity"`
	Location      geo.Coordinate       `json:"location"`
	Located       bool                 `json:"located"`
	LocationLabel string               `json:"location_label"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	PaymentProof  string               `json:"payment_proof,omitempty"`
	Derived       Derived              `json:"derived"`
}

// Derived is recomputed from BrickCode, Quantity and Location; never set directly.
type Derived struct {
	Hub        models.Hub    `json:"hub"`
	DistanceKm float64       `json:"distance_km"`
	Quote      pricing.Quote `json:"quote"`
	Priced     bool          `json:"priced"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// HasLocation reports whether a delivery location was given by label or coordinates.
func (s State) HasLocation() bool {
	return s.Located || s.LocationLabel != ""
}

// Action is a single edit to the form.
type Action interface {
	apply(s *State)
	// repricing reports whether the action touches brick, quantity or coordinates.
	repricing() bool
}

type SetName struct{ Name string }
type SetPhone struct{ Phone string }
type SetEmail struct{ Email string }
type SelectBrick struct{ Code string }
type SetQuantity struct{ Quantity int }
type SetPaymentMethod struct{ Method models.PaymentMethod }
type SetPaymentProof struct{ URL string }
type SetLocationLabel struct{ Label string }

// SetLocation moves the delivery point. An empty Label keeps the current one.
type SetLocation struct {
	Coordinate geo.Coordinate
	Label      string
}

// Reset returns the form to its defaults.
type Reset struct{}

func (a SetName) apply(s *State)          { s.Name = a.Name }
func (a SetPhone) apply(s *State)         { s.Phone = a.Phone }
func (a SetEmail) apply(s *State)         { s.Email = a.Email }
func (a SelectBrick) apply(s *State)      { s.BrickCode = a.Code }
func (a SetQuantity) apply(s *State)      { s.Quantity = a.Quantity }
func (a SetPaymentMethod) apply(s *State) { s.PaymentMethod = a.Method }
func (a SetPaymentProof) apply(s *State)  { s.PaymentProof = a.URL }
func (a SetLocationLabel) apply(s *State) { s.LocationLabel = a.Label }
func (a SetLocation) apply(s *State) {
	s.Location = a.Coordinate
	s.Located = true
	if a.Label != "" {
		s.LocationLabel = a.Label
	}
}
func (Reset) apply(*State) {}

func (SetName) repricing() bool          { return false }
func (SetPhone) repricing() bool         { return false }
func (SetEmail) repricing() bool         { return false }
func (SelectBrick) repricing() bool      { return true }
func (SetQuantity) repricing() bool      { return true }
func (SetPaymentMethod) repricing() bool { return false }
func (SetPaymentProof) repricing() bool  { return false }
func (SetLocationLabel) repricing() bool { return false }
func (SetLocation) repricing() bool      { return true }
func (Reset) repricing() bool            { return true }

// Reducer applies actions to drafts against a product catalog.
type Reducer struct {
	Catalog models.Catalog
}

// NewReducer returns a reducer over catalog, DefaultCatalog when nil.
func NewReducer(catalog models.Catalog) Reducer {
	if catalog == nil {
		catalog = models.DefaultCatalog
	}
	return Reducer{Catalog: catalog}
}

// New returns a defaulted draft with derived pricing filled in.
func (r Reducer) New() State {
	s := State{
		Quantity:      DefaultQuantity,
		Location:      DefaultLocation,
		PaymentMethod: models.PaymentCashOnDelivery,
	}
	if list := r.Catalog.List(); len(list) > 0 {
		s.BrickCode = list[0].Code
	}
	return r.Recompute(s)
}

// Reduce returns the state after applying a. Repricing actions are always
// followed by a full recompute; other actions leave Derived untouched.
func (r Reducer) Reduce(s State, a Action) State {
	if _, ok := a.(Reset); ok {
		return r.New()
	}
	a.apply(&s)
	if a.repricing() {
		return r.Recompute(s)
	}
	return s
}

// Recompute rebuilds Derived: hub of the current brick, then estimated road
// distance, then the price quote.
func (r Reducer) Recompute(s State) State {
	s.Derived = Derived{}
	b, ok := r.Catalog.Lookup(s.BrickCode)
	if !ok {
		s.Derived.Warnings = []string{WarningUnknownBrick}
		return s
	}
	s.Derived.Hub = b.Hub
	s.Derived.DistanceKm = geo.EstimateRoadDistance(s.Location, geo.Coordinate{Lat: b.Hub.Lat, Lng: b.Hub.Lng})
	q, err := pricing.Compute(b, s.Quantity, s.Derived.DistanceKm)
	if err != nil {
		s.Derived.Warnings = []string{WarningNoQuantity}
		return s
	}
	s.Derived.Quote = q
	s.Derived.Priced = true
	if q.SmallOrder {
		s.Derived.Warnings = []string{WarningSmallOrder}
	}
	return s
}
