// Package pricing computes trip counts, bulk discounts and delivery charges
// for brick orders.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"brickDelivery/internal/apperr"
	"brickDelivery/models"
)

const (
	// TripSize is the number of bricks one truck carries.
	TripSize = 2000
	// DiscountThreshold is the quantity from which the bulk discount applies.
	DiscountThreshold = 50000
	// MinimumRecommended is the quantity under which delivery cost is disproportionate.
	MinimumRecommended = 2000
)

var (
	discountFactor = decimal.RequireFromString("0.95")
	fallbackCharge = decimal.NewFromInt(2500)
)

// deliveryBands are keyed by their inclusive upper distance edge in km.
var deliveryBands = []struct {
	upTo    float64
	perTrip decimal.Decimal
}{
	{18, decimal.Zero},
	{25, decimal.NewFromInt(1000)},
	{29.9, decimal.NewFromInt(1500)},
	{math.Inf(1), decimal.NewFromInt(2000)},
}

// Quote is the full price breakdown for one order.
type Quote struct {
	BrickCode      string          `json:"brick_code"`
	Quantity       int             `json:"quantity"`
	DistanceKm     float64         `json:"distance_km"`
	Trips          int             `json:"trips"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	BrickSubtotal  decimal.Decimal `json:"brick_subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
	// SmallOrder flags quantities under MinimumRecommended. It never blocks an order.
	SmallOrder bool `json:"small_order"`
	// Estimated is set when the delivery charge came from the no-distance fallback.
	Estimated bool `json:"estimated"`
}

// Trips returns the number of truck trips needed for quantity bricks.
func Trips(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	return (quantity + TripSize - 1) / TripSize
}

// UnitPrice applies the single bulk-discount cliff to base.
func UnitPrice(base decimal.Decimal, quantity int) decimal.Decimal {
	if quantity >= DiscountThreshold {
		return base.Mul(discountFactor)
	}
	return base
}

// DeliveryCharge returns the distance-banded charge for the given trips.
func DeliveryCharge(distanceKm float64, trips int) decimal.Decimal {
	t := decimal.NewFromInt(int64(trips))
	for _, b := range deliveryBands {
		if distanceKm <= b.upTo {
			return b.perTrip.Mul(t)
		}
	}
	return deliveryBands[len(deliveryBands)-1].perTrip.Mul(t)
}

// FallbackDeliveryCharge is the flat small-order charge used when no
// distance is known. Distance-aware pricing supersedes it whenever a
// coordinate exists.
func FallbackDeliveryCharge(quantity int) decimal.Decimal {
	if quantity < MinimumRecommended {
		return fallbackCharge
	}
	return decimal.Zero
}

// Compute prices quantity bricks of b delivered distanceKm from its hub.
func Compute(b models.BrickType, quantity int, distanceKm float64) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, apperr.Validation("quantity", "quantity must be a positive number of bricks")
	}
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return Quote{}, apperr.Validation("distance_km", "distance must be a non-negative number")
	}
	q := base(b, quantity)
	q.DistanceKm = distanceKm
	q.DeliveryCharge = DeliveryCharge(distanceKm, q.Trips)
	q.Total = q.BrickSubtotal.Add(q.DeliveryCharge)
	return q, nil
}

// ComputeWithoutDistance prices an order whose delivery point is unknown,
// using the flat fallback charge.
func ComputeWithoutDistance(b models.BrickType, quantity int) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, apperr.Validation("quantity", "quantity must be a positive number of bricks")
	}
	q := base(b, quantity)
	q.DeliveryCharge = FallbackDeliveryCharge(quantity)
	q.Total = q.BrickSubtotal.Add(q.DeliveryCharge)
	q.Estimated = true
	return q, nil
}

func base(b models.BrickType, quantity int) Quote {
	unit := UnitPrice(b.BasePrice, quantity)
	return Quote{
		BrickCode:     b.Code,
		Quantity:      quantity,
		Trips:         Trips(quantity),
		UnitPrice:     unit,
		BrickSubtotal: unit.Mul(decimal.NewFromInt(int64(quantity))),
		SmallOrder:    quantity < MinimumRecommended,
	}
}
