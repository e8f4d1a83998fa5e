package lifecycle

import (
	"testing"

	"github.com/shopspring/decimal"

	"brickDelivery/models"
)

func TestPermissive_AllowsAnyKnownStatus(t *testing.T) {
	if !Permissive.Allow(models.OrderStatusDelivered, models.OrderStatusPending) {
		t.Fatalf("permissive should allow delivered -> pending")
	}
	if Permissive.Allow(models.OrderStatusPending, "shipped") {
		t.Fatalf("unknown status must be rejected")
	}
}

func TestStrict_Transitions(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusConfirmed, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusDelivered, false},
		{models.OrderStatusConfirmed, models.OrderStatusOnTheWay, true},
		{models.OrderStatusOnTheWay, models.OrderStatusDelivered, true},
		{models.OrderStatusDelivered, models.OrderStatusPending, false},
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
	}
	for _, tt := range tests {
		if got := Strict.Allow(tt.from, tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPolicyByName(t *testing.T) {
	for name, want := range map[string]Policy{"": Permissive, "permissive": Permissive, "STRICT": Strict} {
		p, err := PolicyByName(name)
		if err != nil || p != want {
			t.Errorf("%q: got %v %v", name, p, err)
		}
	}
	if _, err := PolicyByName("chaotic"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestSummarize(t *testing.T) {
	orders := []models.Order{
		{Status: models.OrderStatusDelivered, Quantity: 60000, Total: decimal.NewFromInt(798000)},
		{Status: models.OrderStatusDelivered, Quantity: 2000, Total: decimal.NewFromInt(33000)},
		{Status: models.OrderStatusPending, Quantity: 4000, Total: decimal.NewFromInt(64000)},
		{Status: models.OrderStatusCancelled, Quantity: 10000, Total: decimal.NewFromInt(160000)},
	}
	s := Summarize(orders)
	if !s.Revenue.Equal(decimal.NewFromInt(831000)) {
		t.Fatalf("revenue: got %s", s.Revenue)
	}
	if s.CommittedUnits != 66000 {
		t.Fatalf("committed units: got %d", s.CommittedUnits)
	}
	if s.Orders != 4 || s.ByStatus[models.OrderStatusDelivered] != 2 || s.ByStatus[models.OrderStatusOnTheWay] != 0 {
		t.Fatalf("counts: %+v", s)
	}

	empty := Summarize(nil)
	if !empty.Revenue.IsZero() || empty.CommittedUnits != 0 || len(empty.ByStatus) != len(models.OrderStatuses) {
		t.Fatalf("empty summary: %+v", empty)
	}
}
