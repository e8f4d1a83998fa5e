package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"brickDelivery/internal/apperr"
	"brickDelivery/models"
)

// AdminUsername is the account every admin login acts as.
const AdminUsername = "admin"

// AdminUsers is the slice of the user repository the admin gate needs.
type AdminUsers interface {
	Ensure(ctx context.Context, username, role string) (*models.User, error)
	UpdateRoleByUsername(ctx context.Context, username, role string) error
}

// AdminGate exchanges the shared admin password for an admin token.
type AdminGate struct {
	password string
	secret   string
	ttl      time.Duration
	users    AdminUsers
	throttle *Throttle
}

func NewAdminGate(password, secret string, ttl time.Duration, users AdminUsers, throttle *Throttle) *AdminGate {
	if throttle == nil {
		throttle = NewThrottle()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminGate{password: password, secret: secret, ttl: ttl, users: users, throttle: throttle}
}

// EnsureAdminUser makes sure the admin account exists with role admin.
func (g *AdminGate) EnsureAdminUser(ctx context.Context) (*models.User, error) {
	u, err := g.users.Ensure(ctx, AdminUsername, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		if err := g.users.UpdateRoleByUsername(ctx, AdminUsername, models.RoleAdmin); err != nil {
			return nil, err
		}
		u.Role = models.RoleAdmin
	}
	return u, nil
}

// Login checks password for the client identified by clientKey and returns
// a signed admin token.
func (g *AdminGate) Login(ctx context.Context, clientKey, password string) (string, error) {
	if g.password == "" {
		return "", apperr.New(apperr.KindForbidden, "admin login is disabled")
	}
	if err := g.throttle.Attempt(clientKey); err != nil {
		return "", err
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) != 1 {
		g.throttle.Fail(clientKey)
		return "", apperr.New(apperr.KindForbidden, "wrong password")
	}
	g.throttle.Success(clientKey)
	if _, err := g.EnsureAdminUser(ctx); err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, "could not load admin account", err)
	}
	tok, err := IssueToken(g.secret, AdminUsername, KindAdmin, g.ttl)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "", fmt.Errorf("issue admin token: %w", err))
	}
	return tok, nil
}
