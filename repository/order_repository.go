package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"brickDelivery/models"
)

const orderColumns = `id, ref, user_id, customer_name, phone, email, brick_code, quantity, lat, lng, location_label, distance_km, trips, unit_price, brick_subtotal, delivery_charge, total, payment_method, payment_proof, status, placement_date`

// OrderRepository is the SQLite-backed OrderStore.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order. Status defaults to pending and a missing Ref is generated.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.Ref == "" {
		o.Ref = NewOrderRef()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Query back after insert to capture placement_date.
	res, err := r.db.ExecContext(ctx, `INSERT INTO orders (ref, user_id, customer_name, phone, email, brick_code, quantity, lat, lng, location_label, distance_km, trips, unit_price, brick_subtotal, delivery_charge, total, payment_method, payment_proof, status) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.Ref, o.UserID, o.CustomerName, o.Phone, o.Email, o.BrickCode, o.Quantity, o.Lat, o.Lng, o.LocationLabel,
		o.DistanceKm, o.Trips, o.UnitPrice.String(), o.BrickSubtotal.String(), o.DeliveryCharge.String(), o.Total.String(),
		string(o.PaymentMethod), o.PaymentProof, string(o.Status))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	o2, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o2 == nil {
		return nil, fmt.Errorf("created order not found: id=%d", id)
	}
	return o2, nil
}

// GetByID fetches an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// Delete removes an order by ID.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus updates the status of an order. It is the only mutable field.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// NewOrderRef returns a short human-readable booking reference.
func NewOrderRef() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BRK-" + strings.ToUpper(id[:10])
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*models.Order, error) {
	var o models.Order
	var status, method string
	var unit, subtotal, delivery, total string
	if err := s.Scan(&o.ID, &o.Ref, &o.UserID, &o.CustomerName, &o.Phone, &o.Email, &o.BrickCode, &o.Quantity,
		&o.Lat, &o.Lng, &o.LocationLabel, &o.DistanceKm, &o.Trips, &unit, &subtotal, &delivery, &total,
		&method, &o.PaymentProof, &status, &o.PlacementAt); err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.PaymentMethod = models.PaymentMethod(method)
	var err error
	if o.UnitPrice, err = decimal.NewFromString(unit); err != nil {
		return nil, fmt.Errorf("order %d unit_price: %w", o.ID, err)
	}
	if o.BrickSubtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("order %d brick_subtotal: %w", o.ID, err)
	}
	if o.DeliveryCharge, err = decimal.NewFromString(delivery); err != nil {
		return nil, fmt.Errorf("order %d delivery_charge: %w", o.ID, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %d total: %w", o.ID, err)
	}
	return &o, nil
}
