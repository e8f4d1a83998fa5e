package repository

import (
	"context"
	"errors"

	"brickDelivery/models"
)

// ErrNotFound is returned by targeted updates and deletes that match no record.
var ErrNotFound = errors.New("record not found")

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, username, role string) (*models.User, error)
	Ensure(ctx context.Context, username, role string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// OrderStore is the document store holding placed orders.
// Single-record reads return nil, nil when the order does not exist.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListAdmin(ctx context.Context, p ListOrdersAdminParams) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
	Delete(ctx context.Context, id int64) error
}

// MessageStore holds contact-form messages.
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	List(ctx context.Context, limit, offset int) ([]models.Message, error)
	Delete(ctx context.Context, id int64) error
}

// ListOrdersAdminParams represents filters and pagination for ListAdmin.
type ListOrdersAdminParams struct {
	Statuses      []models.OrderStatus
	UserID        *int64
	PlacementFrom *string // optional inclusive lower bound on placement_date
	PlacementTo   *string // optional inclusive upper bound on placement_date
	PageSize      int
	AfterSeconds  int64 // keyset cursor: placement_date unix seconds
	AfterID       int64 // keyset cursor: order id
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p *ListOrdersAdminParams) normalize() {
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}
