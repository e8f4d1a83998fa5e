package models

import "github.com/shopspring/decimal"

// OrderStatus represents the current progress of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentBankTransfer
}

// Order is a placed booking. Everything but Status is fixed at creation.
type Order struct {
	ID             int64           `db:"id" json:"id"`
	Ref            string          `db:"ref" json:"ref"`
	UserID         int64           `db:"user_id" json:"user_id"`
	CustomerName   string          `db:"customer_name" json:"customer_name"`
	Phone          string          `db:"phone" json:"phone"`
	Email          string          `db:"email" json:"email,omitempty"`
	BrickCode      string          `db:"brick_code" json:"brick_code"`
	Quantity       int             `db:"quantity" json:"quantity"`
	Lat            float64         `db:"lat" json:"lat"`
	Lng            float64         `db:"lng" json:"lng"`
	LocationLabel  string          `db:"location_label" json:"location_label"`
	DistanceKm     float64         `db:"distance_km" json:"distance_km"`
	Trips          int             `db:"trips" json:"trips"`
	UnitPrice      decimal.Decimal `db:"unit_price" json:"unit_price"`
	BrickSubtotal  decimal.Decimal `db:"brick_subtotal" json:"brick_subtotal"`
	DeliveryCharge decimal.Decimal `db:"delivery_charge" json:"delivery_charge"`
	Total          decimal.Decimal `db:"total" json:"total"`
	PaymentMethod  PaymentMethod   `db:"payment_method" json:"payment_method"`
	// PaymentProof is the uploaded bank-transfer receipt, empty for cash on delivery.
	PaymentProof string      `db:"payment_proof" json:"payment_proof,omitempty"`
	Status       OrderStatus `db:"status" json:"status"`
	PlacementAt  string      `db:"placement_date" json:"placement_date"`
}
