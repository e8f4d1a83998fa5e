package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/lifecycle"
	"brickDelivery/internal/live"
	"brickDelivery/internal/testutil"
	"brickDelivery/models"
	"brickDelivery/repository"
)

type fixture struct {
	svc    *Service
	broker *live.Broker
	users  *repository.UserRepository
}

func newFixture(t *testing.T, name string, policy lifecycle.Policy) fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	store := repository.NewOrderRepository(d)
	broker := live.NewBroker(store, nil)
	t.Cleanup(broker.Close)
	return fixture{
		svc:    NewService(store, policy, broker, nil),
		broker: broker,
		users:  repository.NewUserRepository(d),
	}
}

func newOrder(userID int64, qty int, total int64) *models.Order {
	return &models.Order{
		UserID: userID, CustomerName: "Hari", Phone: "9841000000", BrickCode: models.BrickCMSpecial,
		Quantity: qty, Lat: 27.7, Lng: 85.3, DistanceKm: 10, Trips: 1,
		UnitPrice: decimal.NewFromInt(14), BrickSubtotal: decimal.NewFromInt(total),
		DeliveryCharge: decimal.Zero, Total: decimal.NewFromInt(total),
		PaymentMethod: models.PaymentCashOnDelivery,
		// Place must ignore whatever status the caller supplied.
		Status: models.OrderStatusDelivered,
	}
}

func next(t *testing.T, ch <-chan live.Snapshot) live.Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatalf("stream closed")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("no snapshot within one tick")
	}
	return live.Snapshot{}
}

// An order set to delivered by an admin shows up in the admin aggregate and the
// customer's history in the next snapshot.
func TestUpdateStatus_DeliveredReachesBothViews(t *testing.T) {
	f := newFixture(t, "orders_scenario", lifecycle.Permissive)
	ctx := context.Background()
	u, _ := f.users.Create(ctx, "hari", "")

	o, err := f.svc.Place(ctx, newOrder(u.ID, 2000, 28000))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if o.Status != models.OrderStatusPending {
		t.Fatalf("placed order must be pending, got %s", o.Status)
	}

	admin, cancelAdmin := f.broker.Subscribe(ctx, live.AllOrders())
	defer cancelAdmin()
	mine, cancelMine := f.broker.Subscribe(ctx, live.UserOrders(u.ID))
	defer cancelMine()
	before := next(t, admin)
	next(t, mine)
	if before.Stats.ByStatus[models.OrderStatusDelivered] != 0 || !before.Stats.Revenue.IsZero() {
		t.Fatalf("unexpected initial stats: %+v", before.Stats)
	}

	if _, err := f.svc.UpdateStatus(ctx, o.ID, models.OrderStatusDelivered); err != nil {
		t.Fatalf("update: %v", err)
	}

	after := next(t, admin)
	if after.Stats.ByStatus[models.OrderStatusDelivered] != 1 {
		t.Fatalf("delivered count: %+v", after.Stats.ByStatus)
	}
	if !after.Stats.Revenue.Equal(decimal.NewFromInt(28000)) {
		t.Fatalf("revenue: %s", after.Stats.Revenue)
	}
	hist := next(t, mine)
	if len(hist.Orders) != 1 || hist.Orders[0].Status != models.OrderStatusDelivered {
		t.Fatalf("customer history: %+v", hist.Orders)
	}
}

func TestUpdateStatus_PolicyIsPluggable(t *testing.T) {
	ctx := context.Background()

	// Permissive lets an admin correct a mistake.
	p := newFixture(t, "orders_permissive", lifecycle.Permissive)
	u, _ := p.users.Create(ctx, "a", "")
	o, _ := p.svc.Place(ctx, newOrder(u.ID, 2000, 28000))
	if _, err := p.svc.UpdateStatus(ctx, o.ID, models.OrderStatusDelivered); err != nil {
		t.Fatalf("permissive delivered: %v", err)
	}
	if _, err := p.svc.UpdateStatus(ctx, o.ID, models.OrderStatusPending); err != nil {
		t.Fatalf("permissive delivered -> pending should pass: %v", err)
	}

	s := newFixture(t, "orders_strict", lifecycle.Strict)
	u2, _ := s.users.Create(ctx, "b", "")
	o2, _ := s.svc.Place(ctx, newOrder(u2.ID, 2000, 28000))
	for _, st := range []models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusOnTheWay, models.OrderStatusDelivered} {
		if _, err := s.svc.UpdateStatus(ctx, o2.ID, st); err != nil {
			t.Fatalf("strict forward %s: %v", st, err)
		}
	}
	_, err := s.svc.UpdateStatus(ctx, o2.ID, models.OrderStatusPending)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("strict delivered -> pending should conflict, got %v", err)
	}
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newFixture(t, "orders_errors", nil)
	ctx := context.Background()
	if _, err := f.svc.UpdateStatus(ctx, 1, "lost"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, 404, models.OrderStatusConfirmed); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.svc.Delete(ctx, 404); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestListAdmin_FiltersAndCursor(t *testing.T) {
	f := newFixture(t, "orders_admin", nil)
	ctx := context.Background()
	u, _ := f.users.Create(ctx, "c", "")
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Place(ctx, newOrder(u.ID, 2000, 28000)); err != nil {
			t.Fatalf("place: %v", err)
		}
	}
	page, err := f.svc.ListAdmin(ctx, AdminFilter{PageSize: 2, Statuses: []string{"pending"}})
	if err != nil || len(page.Orders) != 2 || page.NextCursor == "" {
		t.Fatalf("page1: %v %+v", err, page)
	}
	page2, err := f.svc.ListAdmin(ctx, AdminFilter{PageSize: 2, Cursor: page.NextCursor})
	if err != nil || len(page2.Orders) != 1 || page2.NextCursor != "" {
		t.Fatalf("page2: %v %+v", err, page2)
	}

	_, err = f.svc.ListAdmin(ctx, AdminFilter{Statuses: []string{"lost"}, Cursor: "!!", From: "yesterday"})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindValidation || len(ae.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}
}

func TestStatsAndDelete(t *testing.T) {
	f := newFixture(t, "orders_stats", nil)
	ctx := context.Background()
	u, _ := f.users.Create(ctx, "d", "")
	a, _ := f.svc.Place(ctx, newOrder(u.ID, 60000, 828000))
	b, _ := f.svc.Place(ctx, newOrder(u.ID, 4000, 59000))
	if _, err := f.svc.UpdateStatus(ctx, a.ID, models.OrderStatusDelivered); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, b.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("update: %v", err)
	}
	st, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !st.Revenue.Equal(decimal.NewFromInt(828000)) || st.CommittedUnits != 60000 {
		t.Fatalf("stats: %+v", st)
	}
	if err := f.svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mine, _ := f.svc.ListForUser(ctx, u.ID)
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("after delete: %+v", mine)
	}
}
