package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"brickDelivery/models"
)

// ListByUserID returns all orders for a user ordered by placement_date desc.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY placement_date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY placement_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// ListAdmin returns orders matching filters ordered by placement_date desc, id desc with keyset pagination.
func (r *OrderRepository) ListAdmin(ctx context.Context, p ListOrdersAdminParams) ([]models.Order, error) {
	p.normalize()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any

	if len(p.Statuses) > 0 {
		placeholders := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if p.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *p.UserID)
	}
	if p.PlacementFrom != nil {
		where = append(where, "placement_date >= ?")
		args = append(args, *p.PlacementFrom)
	}
	if p.PlacementTo != nil {
		where = append(where, "placement_date <= ?")
		args = append(args, *p.PlacementTo)
	}
	if p.AfterSeconds > 0 && p.AfterID > 0 {
		// Numeric time avoids string-format pitfalls in the keyset comparison.
		where = append(where, "(CAST(strftime('%s', placement_date) AS INTEGER) < ? OR (CAST(strftime('%s', placement_date) AS INTEGER) = ? AND id < ?))")
		args = append(args, p.AfterSeconds, p.AfterSeconds, p.AfterID)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY placement_date DESC, id DESC LIMIT ?"
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

func scanOrderRows(rows *sql.Rows) ([]models.Order, error) {
	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
