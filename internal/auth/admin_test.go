package auth

import (
	"context"
	"sync"
	"testing"

	"brickDelivery/internal/apperr"
	"brickDelivery/internal/testutil"
	"brickDelivery/models"
	"brickDelivery/repository"
)

func TestAdminGate_Login(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "admingate")
	users := repository.NewUserRepository(d)
	ctx := context.Background()
	gate := NewAdminGate("open-sesame", testSecret, 0, users, nil)

	if _, err := gate.Login(ctx, "1.2.3.4", "guess"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("wrong password should be forbidden, got %v", err)
	}
	// The failed attempt starts a cooldown even for the right password.
	if _, err := gate.Login(ctx, "1.2.3.4", "open-sesame"); !apperr.Is(err, apperr.KindThrottled) {
		t.Fatalf("expected throttled, got %v", err)
	}

	tok, err := gate.Login(ctx, "5.6.7.8", "open-sesame")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := parseJWT(tok, testSecret)
	if err != nil || p.Name != AdminUsername || p.Kind != KindAdmin {
		t.Fatalf("admin token: %+v %v", p, err)
	}
	u, _ := users.GetByUsername(ctx, AdminUsername)
	if !u.IsAdmin() {
		t.Fatalf("admin user should have role admin: %+v", u)
	}
}

func TestAdminGate_PromotesExistingAccount(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "admingate_promote")
	users := repository.NewUserRepository(d)
	ctx := context.Background()
	if _, err := users.Create(ctx, AdminUsername, models.RoleCustomer); err != nil {
		t.Fatalf("seed: %v", err)
	}
	gate := NewAdminGate("pw", testSecret, 0, users, nil)
	u, err := gate.EnsureAdminUser(ctx)
	if err != nil || !u.IsAdmin() {
		t.Fatalf("ensure admin: %+v %v", u, err)
	}
}

func TestAdminGate_DisabledWithoutPassword(t *testing.T) {
	gate := NewAdminGate("", testSecret, 0, nil, nil)
	if _, err := gate.Login(context.Background(), "k", ""); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("empty configured password must disable login, got %v", err)
	}
}

func TestAdminGate_ParallelGuessesGetOneTry(t *testing.T) {
	gate := NewAdminGate("open-sesame", testSecret, 0, nil, nil)
	const n = 20
	errs := make(chan error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := gate.Login(context.Background(), "9.9.9.9", "guess")
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	forbidden, throttled := 0, 0
	for err := range errs {
		switch {
		case apperr.Is(err, apperr.KindForbidden):
			forbidden++
		case apperr.Is(err, apperr.KindThrottled):
			throttled++
		default:
			t.Fatalf("unexpected result %v", err)
		}
	}
	if forbidden != 1 || throttled != n-1 {
		t.Fatalf("forbidden=%d throttled=%d, want exactly one password check", forbidden, throttled)
	}
}
