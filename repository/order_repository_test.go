package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"brickDelivery/internal/testutil"
	"brickDelivery/models"
)

func sampleOrder(userID int64) *models.Order {
	return &models.Order{
		UserID:         userID,
		CustomerName:   "Ram Shrestha",
		Phone:          "9841000000",
		BrickCode:      models.BrickHighGrade,
		Quantity:       60000,
		Lat:            27.6710,
		Lng:            85.4298,
		LocationLabel:  "Bhaktapur",
		DistanceKm:     3.2,
		Trips:          30,
		UnitPrice:      decimal.RequireFromString("15.2"),
		BrickSubtotal:  decimal.RequireFromString("912000"),
		DeliveryCharge: decimal.Zero,
		Total:          decimal.RequireFromString("912000"),
		PaymentMethod:  models.PaymentCashOnDelivery,
	}
}

func TestOrderRepository_CreateGetUpdateDelete(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "orderrepo_crud")
	users := NewUserRepository(d)
	orders := NewOrderRepository(d)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u, err := users.Create(ctx, "ram", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	o, err := orders.Create(ctx, sampleOrder(u.ID))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if o.ID == 0 || o.Ref == "" || o.PlacementAt == "" {
		t.Fatalf("expected id, ref and placement date: %+v", o)
	}
	if o.Status != models.OrderStatusPending {
		t.Fatalf("status should default to pending, got %s", o.Status)
	}
	if !o.UnitPrice.Equal(decimal.RequireFromString("15.2")) || !o.Total.Equal(decimal.RequireFromString("912000")) {
		t.Fatalf("amounts not preserved: unit=%s total=%s", o.UnitPrice, o.Total)
	}

	if err := orders.UpdateStatus(ctx, o.ID, models.OrderStatusConfirmed); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := orders.GetByID(ctx, o.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %+v", err, got)
	}
	if got.Status != models.OrderStatusConfirmed || got.Quantity != 60000 {
		t.Fatalf("unexpected order after update: %+v", got)
	}

	if err := orders.UpdateStatus(ctx, 9999, models.OrderStatusConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing order, got %v", err)
	}

	if err := orders.Delete(ctx, o.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := orders.GetByID(ctx, o.ID); got != nil {
		t.Fatalf("order should be gone: %+v", got)
	}
	if err := orders.Delete(ctx, o.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestOrderRepository_ListsAndAdminFilters(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "orderrepo_list")
	users := NewUserRepository(d)
	orders := NewOrderRepository(d)
	ctx := context.Background()

	a, _ := users.Create(ctx, "a", "")
	b, _ := users.Create(ctx, "b", "")

	var ids []int64
	for i := 0; i < 3; i++ {
		o, err := orders.Create(ctx, sampleOrder(a.ID))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, o.ID)
	}
	ob, err := orders.Create(ctx, sampleOrder(b.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := orders.UpdateStatus(ctx, ob.ID, models.OrderStatusDelivered); err != nil {
		t.Fatalf("update: %v", err)
	}

	mine, err := orders.ListByUserID(ctx, a.ID)
	if err != nil || len(mine) != 3 {
		t.Fatalf("list by user: %v len=%d", err, len(mine))
	}
	// Same-second placements fall back to id desc.
	if mine[0].ID != ids[2] || mine[2].ID != ids[0] {
		t.Fatalf("expected newest first, got %d..%d", mine[0].ID, mine[2].ID)
	}

	all, err := orders.ListAll(ctx)
	if err != nil || len(all) != 4 {
		t.Fatalf("list all: %v len=%d", err, len(all))
	}

	delivered, err := orders.ListAdmin(ctx, ListOrdersAdminParams{Statuses: []models.OrderStatus{models.OrderStatusDelivered}})
	if err != nil || len(delivered) != 1 || delivered[0].ID != ob.ID {
		t.Fatalf("status filter: %v %+v", err, delivered)
	}

	page1, err := orders.ListAdmin(ctx, ListOrdersAdminParams{UserID: &a.ID, PageSize: 2})
	if err != nil || len(page1) != 2 {
		t.Fatalf("page1: %v len=%d", err, len(page1))
	}
	token := NextCursor(page1, 2)
	if token == "" {
		t.Fatalf("expected a cursor after a full page")
	}
	sec, id, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	page2, err := orders.ListAdmin(ctx, ListOrdersAdminParams{UserID: &a.ID, PageSize: 2, AfterSeconds: sec, AfterID: id})
	if err != nil || len(page2) != 1 || page2[0].ID != ids[0] {
		t.Fatalf("page2: %v %+v", err, page2)
	}
	if NextCursor(page2, 2) != "" {
		t.Fatalf("short page should end pagination")
	}
}

func TestMessageRepository(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "messagerepo")
	repo := NewMessageRepository(d)
	ctx := context.Background()

	m, err := repo.Create(ctx, &models.Message{Name: "Sita", Contact: "9800000000", Body: "Do you deliver to Lalitpur?"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == 0 || m.CreatedAt == "" {
		t.Fatalf("expected id and timestamp: %+v", m)
	}
	list, err := repo.List(ctx, 10, 0)
	if err != nil || len(list) != 1 || list[0].Body != m.Body {
		t.Fatalf("list: %v %+v", err, list)
	}
	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
